package memops

import (
	"context"
	"testing"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
	"github.com/cortexmemory/cortex/internal/storage/memadapter"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCreateRequiresExistingCategory(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	_, err := Create(ctx, a, "work/notes/hello", CreateInput{Content: "hi", Source: "user"}, fixedNow)
	require.Error(t, err)
	var memErr *Error
	require.ErrorAs(t, err, &memErr)
	require.Equal(t, ErrCategoryNotFound, memErr.Code)
}

func TestCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))

	created, err := Create(ctx, a, "work/notes/hello", CreateInput{Content: "hi there", Source: "user"}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, "hi there", created.Content())

	got, err := Get(ctx, a, "work/notes/hello", GetOptions{}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, created.Path().String(), got.Path().String())
}

func TestGetExpiredRequiresIncludeExpired(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	past := fixedNow.Add(-time.Hour)
	_, err := Create(ctx, a, "work/notes/hello", CreateInput{Content: "hi", Source: "user", ExpiresAt: &past}, fixedNow)
	require.NoError(t, err)

	_, err = Get(ctx, a, "work/notes/hello", GetOptions{}, fixedNow)
	require.Error(t, err)
	var memErr *Error
	require.ErrorAs(t, err, &memErr)
	require.Equal(t, ErrMemoryExpired, memErr.Code)

	got, err := Get(ctx, a, "work/notes/hello", GetOptions{IncludeExpired: true}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, "hi", got.Content())
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/hello", CreateInput{Content: "hi", Source: "user"}, fixedNow)
	require.NoError(t, err)

	_, err = Update(ctx, a, "work/notes/hello", Updates{}, fixedNow)
	require.Error(t, err)
	var memErr *Error
	require.ErrorAs(t, err, &memErr)
	require.Equal(t, ErrInvalidInput, memErr.Code)
}

func TestUpdateThreeValuedExpiresAt(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	future := fixedNow.Add(time.Hour)
	_, err := Create(ctx, a, "work/notes/hello", CreateInput{Content: "hi", Source: "user", ExpiresAt: &future}, fixedNow)
	require.NoError(t, err)

	content := "updated"
	updated, err := Update(ctx, a, "work/notes/hello", Updates{Content: &content}, fixedNow)
	require.NoError(t, err)
	require.NotNil(t, updated.Metadata().ExpiresAt, "expiresAt is kept when update doesn't mention it")

	updated, err = Update(ctx, a, "work/notes/hello", Updates{HasExpiresAt: true, ExpiresAt: ExpiresAtUpdate{Clear: true}}, fixedNow)
	require.NoError(t, err)
	require.Nil(t, updated.Metadata().ExpiresAt)
}

func TestMoveNoopOnIdenticalPaths(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/hello", CreateInput{Content: "hi", Source: "user"}, fixedNow)
	require.NoError(t, err)
	require.NoError(t, Move(ctx, a, "work/notes/hello", "work/notes/hello"))
}

func TestMoveRejectsExistingDestination(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user"}, fixedNow)
	require.NoError(t, err)
	_, err = Create(ctx, a, "work/notes/b", CreateInput{Content: "two", Source: "user"}, fixedNow)
	require.NoError(t, err)

	err = Move(ctx, a, "work/notes/a", "work/notes/b")
	require.Error(t, err)
	var memErr *Error
	require.ErrorAs(t, err, &memErr)
	require.Equal(t, ErrDestinationExists, memErr.Code)
}

func TestMoveCreatesDestinationCategory(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user"}, fixedNow)
	require.NoError(t, err)

	require.NoError(t, Move(ctx, a, "work/notes/a", "personal/archive/a"))

	got, err := Get(ctx, a, "personal/archive/a", GetOptions{}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, "one", got.Content())

	_, err = Get(ctx, a, "work/notes/a", GetOptions{}, fixedNow)
	require.Error(t, err)
}

func TestRemoveReindexesParent(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user"}, fixedNow)
	require.NoError(t, err)

	require.NoError(t, Remove(ctx, a, "work/notes/a"))

	idx, err := a.Indexes().Load(ctx, path.MustParseCategoryPath("work/notes"))
	require.NoError(t, err)
	require.Empty(t, idx.Memories)
}

func TestListRecursesAndFiltersExpired(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/archive")))
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user"}, fixedNow)
	require.NoError(t, err)
	past := fixedNow.Add(-time.Hour)
	_, err = Create(ctx, a, "work/archive/b", CreateInput{Content: "two", Source: "user", ExpiresAt: &past}, fixedNow)
	require.NoError(t, err)

	result, err := List(ctx, a, ListOptions{Category: ptr(path.MustParseCategoryPath("work"))}, fixedNow)
	require.NoError(t, err)
	require.Len(t, result.Memories, 1)
	require.Equal(t, "work/notes/a", result.Memories[0].Path.String())

	result, err = List(ctx, a, ListOptions{Category: ptr(path.MustParseCategoryPath("work")), IncludeExpired: true}, fixedNow)
	require.NoError(t, err)
	require.Len(t, result.Memories, 2)
}

func TestPruneDryRunDoesNotRemove(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	past := fixedNow.Add(-time.Hour)
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user", ExpiresAt: &past}, fixedNow)
	require.NoError(t, err)

	pruned, err := Prune(ctx, a, path.RootCategory, PruneOptions{DryRun: true}, fixedNow)
	require.NoError(t, err)
	require.Len(t, pruned, 1)

	_, err = Get(ctx, a, "work/notes/a", GetOptions{IncludeExpired: true}, fixedNow)
	require.NoError(t, err)
}

func TestPruneRemovesExpired(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	past := fixedNow.Add(-time.Hour)
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user", ExpiresAt: &past}, fixedNow)
	require.NoError(t, err)
	_, err = Create(ctx, a, "work/notes/b", CreateInput{Content: "two", Source: "user"}, fixedNow)
	require.NoError(t, err)

	pruned, err := Prune(ctx, a, path.RootCategory, PruneOptions{}, fixedNow)
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	require.Equal(t, "work/notes/a", pruned[0].Path().String())

	idx, err := a.Indexes().Load(ctx, path.MustParseCategoryPath("work/notes"))
	require.NoError(t, err)
	require.Len(t, idx.Memories, 1)
}

func TestRecentOrdersByUpdatedAtDescending(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user"}, fixedNow.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = Create(ctx, a, "work/notes/b", CreateInput{Content: "two", Source: "user"}, fixedNow.Add(-time.Hour))
	require.NoError(t, err)

	result, err := Recent(ctx, a, RecentOptions{Limit: 1, HasLimit: true}, fixedNow)
	require.NoError(t, err)
	require.Len(t, result.Memories, 1)
	require.Equal(t, "work/notes/b", result.Memories[0].Path().String())
	require.Equal(t, "all", result.CategoryLabel)
}

func TestRecentDefaultsWhenLimitNotSpecified(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	for _, slug := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := Create(ctx, a, "work/notes/"+slug, CreateInput{Content: slug, Source: "user"}, fixedNow)
		require.NoError(t, err)
	}

	result, err := Recent(ctx, a, RecentOptions{}, fixedNow)
	require.NoError(t, err)
	require.Len(t, result.Memories, defaultRecentLimit)
}

func TestRecentExplicitZeroLimitReturnsEmptyWithoutLoadingMemories(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	require.NoError(t, a.Categories().Ensure(ctx, path.MustParseCategoryPath("work/notes")))
	_, err := Create(ctx, a, "work/notes/a", CreateInput{Content: "one", Source: "user"}, fixedNow)
	require.NoError(t, err)

	noLoad := &noMemoryLoadAdapter{ScopedAdapter: a}
	result, err := Recent(ctx, noLoad, RecentOptions{Limit: 0, HasLimit: true}, fixedNow)
	require.NoError(t, err)
	require.Empty(t, result.Memories)
	require.Equal(t, "all", result.CategoryLabel)
}

// noMemoryLoadAdapter wraps a storage.ScopedAdapter and fails the test
// if Memories().Load is ever called, proving limit=0 short-circuits
// before touching any memory file.
type noMemoryLoadAdapter struct {
	storage.ScopedAdapter
}

func (a *noMemoryLoadAdapter) Memories() storage.Memories {
	return noLoadMemories{a.ScopedAdapter.Memories()}
}

type noLoadMemories struct {
	storage.Memories
}

func (noLoadMemories) Load(ctx context.Context, p path.MemoryPath) (*memory.Memory, error) {
	panic("Memories().Load must not be called when the resolved limit is 0")
}

func ptr[T any](v T) *T { return &v }
