package memory_test

import (
	"testing"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPath(t *testing.T, s string) path.MemoryPath {
	t.Helper()
	p, err := path.ParseMemoryPath(s)
	require.NoError(t, err)
	return p
}

func TestInitValidatesTimestamps(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	_, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{
		CreatedAt: now, UpdatedAt: earlier, Source: "cli",
	}, "")
	require.Error(t, err)
}

func TestInitRequiresSource(t *testing.T) {
	now := time.Now()
	_, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{CreatedAt: now, UpdatedAt: now}, "x")
	require.Error(t, err)
}

func TestInitRejectsDuplicateTags(t *testing.T) {
	now := time.Now()
	_, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{
		CreatedAt: now, UpdatedAt: now, Source: "cli", Tags: []string{"a", "a"},
	}, "")
	require.Error(t, err)
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := now
	m, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{
		CreatedAt: now, UpdatedAt: now, Source: "cli", ExpiresAt: &exp,
	}, "")
	require.NoError(t, err)

	// expiresAt == now counts as expired (<=, not <).
	assert.True(t, m.IsExpired(now))
	assert.True(t, m.IsExpired(now.Add(time.Second)))
	assert.False(t, m.IsExpired(now.Add(-time.Second)))
}

func TestIsExpiredWithoutExpiry(t *testing.T) {
	now := time.Now()
	m, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{
		CreatedAt: now, UpdatedAt: now, Source: "cli",
	}, "")
	require.NoError(t, err)
	assert.False(t, m.IsExpired(now.Add(24*time.Hour)))
}

func TestEmptyContentRoundTrips(t *testing.T) {
	now := time.Now()
	m, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{
		CreatedAt: now, UpdatedAt: now, Source: "cli",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "", m.Content())
}

func TestMetadataCopyIsDefensive(t *testing.T) {
	now := time.Now()
	m, err := memory.Init(mustPath(t, "a/b"), memory.Metadata{
		CreatedAt: now, UpdatedAt: now, Source: "cli", Tags: []string{"x"},
	}, "")
	require.NoError(t, err)

	meta := m.Metadata()
	meta.Tags[0] = "mutated"
	assert.Equal(t, "x", m.Metadata().Tags[0])
}
