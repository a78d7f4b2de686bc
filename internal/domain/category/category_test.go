package category_test

import (
	"strings"
	"testing"

	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMemPath(t *testing.T, s string) path.MemoryPath {
	t.Helper()
	p, err := path.ParseMemoryPath(s)
	require.NoError(t, err)
	return p
}

func TestNormalizeSortsByPath(t *testing.T) {
	c := category.Category{
		Memories: []category.MemoryEntry{
			{Path: mustMemPath(t, "a/zeta")},
			{Path: mustMemPath(t, "a/alpha")},
		},
	}
	n := c.Normalize()
	assert.Equal(t, "a/alpha", n.Memories[0].Path.String())
	assert.Equal(t, "a/zeta", n.Memories[1].Path.String())
}

func TestValidateDescription(t *testing.T) {
	assert.True(t, category.ValidateDescription(nil))
	ok := "short"
	assert.True(t, category.ValidateDescription(&ok))
	long := strings.Repeat("x", category.MaxDescriptionLength+1)
	assert.False(t, category.ValidateDescription(&long))
	exact := strings.Repeat("x", category.MaxDescriptionLength)
	assert.True(t, category.ValidateDescription(&exact))
}
