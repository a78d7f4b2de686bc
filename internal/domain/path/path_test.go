package path_test

import (
	"testing"

	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlug(t *testing.T) {
	valid := []string{"a", "a1", "hello-world", "a-b-c-123"}
	for _, s := range valid {
		sl, err := path.ParseSlug(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, sl.String())
	}

	invalid := []string{"", "A", "Hello", "-abc", "abc-", "a--b", "a_b", "a b"}
	for _, s := range invalid {
		_, err := path.ParseSlug(s)
		assert.Error(t, err, s)
	}
}

func TestCategoryPathNormalization(t *testing.T) {
	cases := [][2]string{
		{"a//b", "a/b"},
		{"/a/b", "a/b"},
		{"a/b/", "a/b"},
		{"a/b//c", "a/b/c"},
		{"", ""},
		{"///", ""},
	}
	for _, c := range cases {
		p, err := path.ParseCategoryPath(c[0])
		require.NoError(t, err, c[0])
		assert.Equal(t, c[1], p.String())
	}
}

func TestCategoryPathIdempotent(t *testing.T) {
	p, err := path.ParseCategoryPath("project/notes")
	require.NoError(t, err)
	p2, err := path.ParseCategoryPath(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.String(), p2.String())
}

func TestCategoryPathRootAndParent(t *testing.T) {
	root, _ := path.ParseCategoryPath("")
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.Depth())
	_, ok := root.Parent()
	assert.False(t, ok)

	p, _ := path.ParseCategoryPath("a/b/c")
	assert.Equal(t, 3, p.Depth())
	parent, ok := p.Parent()
	require.True(t, ok)
	assert.Equal(t, "a/b", parent.String())
}

func TestCategoryPathChild(t *testing.T) {
	p, _ := path.ParseCategoryPath("a")
	child, err := p.Child("b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", child.String())

	_, err = p.Child("Invalid_Segment")
	assert.Error(t, err)
}

func TestLowestCommonAncestor(t *testing.T) {
	a, _ := path.ParseCategoryPath("a/b/c")
	b, _ := path.ParseCategoryPath("a/b/d")
	lca := path.LowestCommonAncestor(a, b)
	assert.Equal(t, "a/b", lca.String())

	x, _ := path.ParseCategoryPath("a")
	y, _ := path.ParseCategoryPath("b")
	assert.True(t, path.LowestCommonAncestor(x, y).IsRoot())
}

func TestMemoryPathNormalization(t *testing.T) {
	p1, err := path.ParseMemoryPath("a/b//c")
	require.NoError(t, err)
	p2, err := path.ParseMemoryPath("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, p2.String(), p1.String())
	assert.Equal(t, "a/b/c", p1.String())
}

func TestMemoryPathRequiresCategory(t *testing.T) {
	_, err := path.ParseMemoryPath("alpha")
	require.Error(t, err)
	var pErr *path.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, path.ErrMissingCategory, pErr.Code)
}

func TestMemoryPathRejectsInvalidSlug(t *testing.T) {
	_, err := path.ParseMemoryPath("project/notes/Invalid Slug")
	require.Error(t, err)
}
