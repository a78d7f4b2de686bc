package memadapter

import (
	"context"
	"testing"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/stretchr/testify/require"
)

func TestMemadapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := New()

	cat := path.MustParseCategoryPath("work/notes")
	require.NoError(t, a.Categories().Ensure(ctx, cat))

	mp, err := path.ParseMemoryPath("work/notes/hello")
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := memory.Init(mp, memory.Metadata{CreatedAt: now, UpdatedAt: now, Source: "user"}, "hi there")
	require.NoError(t, err)

	require.NoError(t, a.Memories().Save(ctx, mp, m))
	require.NoError(t, a.Indexes().UpdateAfterMemoryWrite(ctx, m))

	idx, err := a.Indexes().Load(ctx, cat)
	require.NoError(t, err)
	require.Len(t, idx.Memories, 1)

	parentIdx, err := a.Indexes().Load(ctx, path.MustParseCategoryPath("work"))
	require.NoError(t, err)
	require.Equal(t, 1, parentIdx.Subcategories[0].MemoryCount)

	report, err := a.Indexes().Reindex(ctx, path.RootCategory)
	require.NoError(t, err)
	require.Positive(t, report.Rebuilt)
}
