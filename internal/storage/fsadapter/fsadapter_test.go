package fsadapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	cpath "github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) storage.ScopedAdapter {
	t.Helper()
	a, err := New(context.Background(), map[string]any{"path": t.TempDir()})
	require.NoError(t, err)
	return a
}

func mustMem(t *testing.T, p string, content, source string) memory.Memory {
	t.Helper()
	mp, err := cpath.ParseMemoryPath(p)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := memory.Init(mp, memory.Metadata{CreatedAt: now, UpdatedAt: now, Source: source}, content)
	require.NoError(t, err)
	return m
}

func TestCategoriesEnsureCreatesAncestors(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	c := cpath.MustParseCategoryPath("work/projects/cortex")
	require.NoError(t, a.Categories().Ensure(ctx, c))

	exists, err := a.Categories().Exists(ctx, c)
	require.NoError(t, err)
	require.True(t, exists)

	parent := cpath.MustParseCategoryPath("work/projects")
	exists, err = a.Categories().Exists(ctx, parent)
	require.NoError(t, err)
	require.True(t, exists)

	idx, err := a.Indexes().Load(ctx, parent)
	require.NoError(t, err)
	require.Len(t, idx.Subcategories, 1)
	require.Equal(t, "work/projects/cortex", idx.Subcategories[0].Path.String())
	require.Equal(t, 0, idx.Subcategories[0].MemoryCount)
}

func TestMemorySaveRequiresCategory(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	m := mustMem(t, "work/notes", "hello world", "user")
	err := a.Memories().Save(ctx, m.Path(), m)
	require.Error(t, err)
	var adapterErr *storage.AdapterError
	require.ErrorAs(t, err, &adapterErr)
	require.Equal(t, storage.ErrNotFound, adapterErr.Code)
}

func TestMemorySaveLoadUpdatesIndex(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	cat := cpath.MustParseCategoryPath("work/notes")
	require.NoError(t, a.Categories().Ensure(ctx, cat))

	m := mustMem(t, "work/notes/hello", "hello world foo", "user")
	require.NoError(t, a.Memories().Save(ctx, m.Path(), m))
	require.NoError(t, a.Indexes().UpdateAfterMemoryWrite(ctx, m))

	loaded, err := a.Memories().Load(ctx, m.Path())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "hello world foo", loaded.Content())

	idx, err := a.Indexes().Load(ctx, cat)
	require.NoError(t, err)
	require.Len(t, idx.Memories, 1)
	require.Equal(t, 3, idx.Memories[0].TokenEstimate)

	parentIdx, err := a.Indexes().Load(ctx, cpath.MustParseCategoryPath("work"))
	require.NoError(t, err)
	require.Len(t, parentIdx.Subcategories, 1)
	require.Equal(t, 1, parentIdx.Subcategories[0].MemoryCount)
}

func TestMemoryLoadAbsentReturnsNil(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	mp, err := cpath.ParseMemoryPath("work/notes/missing")
	require.NoError(t, err)
	m, err := a.Memories().Load(ctx, mp)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestMemoryMoveRejectsExistingDestination(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	cat := cpath.MustParseCategoryPath("work/notes")
	require.NoError(t, a.Categories().Ensure(ctx, cat))

	m1 := mustMem(t, "work/notes/a", "one", "user")
	m2 := mustMem(t, "work/notes/b", "two", "user")
	require.NoError(t, a.Memories().Save(ctx, m1.Path(), m1))
	require.NoError(t, a.Memories().Save(ctx, m2.Path(), m2))

	err := a.Memories().Move(ctx, m1.Path(), m2.Path())
	require.Error(t, err)
	var adapterErr *storage.AdapterError
	require.ErrorAs(t, err, &adapterErr)
	require.Equal(t, storage.ErrAlreadyExists, adapterErr.Code)
}

func TestReindexRebuildsFromDisk(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	cat := cpath.MustParseCategoryPath("work/notes")
	require.NoError(t, a.Categories().Ensure(ctx, cat))
	m := mustMem(t, "work/notes/hello", "one two three four", "user")
	require.NoError(t, a.Memories().Save(ctx, m.Path(), m))

	report, err := a.Indexes().Reindex(ctx, cpath.RootCategory)
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	require.GreaterOrEqual(t, report.Rebuilt, 3)

	idx, err := a.Indexes().Load(ctx, cat)
	require.NoError(t, err)
	require.Len(t, idx.Memories, 1)
	require.Equal(t, 4, idx.Memories[0].TokenEstimate)

	rootIdx, err := a.Indexes().Load(ctx, cpath.RootCategory)
	require.NoError(t, err)
	require.Len(t, rootIdx.Subcategories, 1)
	require.Equal(t, "work", rootIdx.Subcategories[0].Path.String())
}

// TestReindexIsIdempotent checks the spec's property that two
// consecutive reindex(root) runs produce byte-identical index files:
// it snapshots every index.yaml after the first run, reindexes again,
// and diffs the trees with go-difflib so a mismatch points at the
// exact differing lines rather than just failing an equality check.
func TestReindexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	a, err := New(ctx, map[string]any{"path": root})
	require.NoError(t, err)

	cat := cpath.MustParseCategoryPath("work/notes")
	require.NoError(t, a.Categories().Ensure(ctx, cat))
	for _, p := range []string{"work/notes/alpha", "work/notes/beta", "work/other"} {
		m := mustMem(t, p, "body of "+p, "user")
		require.NoError(t, a.Memories().Save(ctx, m.Path(), m))
	}

	_, err = a.Indexes().Reindex(ctx, cpath.RootCategory)
	require.NoError(t, err)
	before := snapshotIndexFiles(t, root)

	_, err = a.Indexes().Reindex(ctx, cpath.RootCategory)
	require.NoError(t, err)
	after := snapshotIndexFiles(t, root)

	require.Equal(t, len(before), len(after), "reindex changed the set of index files")
	for path, beforeContent := range before {
		afterContent, ok := after[path]
		require.True(t, ok, "index file %s disappeared after the second reindex", path)
		if beforeContent != afterContent {
			diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(beforeContent),
				B:        difflib.SplitLines(afterContent),
				FromFile: path + " (first reindex)",
				ToFile:   path + " (second reindex)",
				Context:  2,
			})
			t.Fatalf("%s is not byte-identical across consecutive reindexes:\n%s", path, diff)
		}
	}
}

func snapshotIndexFiles(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Base(path) != indexFileName {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestCategoryDeleteRemovesSubtreeAndIndexEntry(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	cat := cpath.MustParseCategoryPath("work/notes")
	require.NoError(t, a.Categories().Ensure(ctx, cat))

	require.NoError(t, a.Categories().Delete(ctx, cat))
	exists, err := a.Categories().Exists(ctx, cat)
	require.NoError(t, err)
	require.False(t, exists)

	idx, err := a.Indexes().Load(ctx, cpath.MustParseCategoryPath("work"))
	require.NoError(t, err)
	require.Empty(t, idx.Subcategories)
}

func TestSetDescriptionRejectsRootAndOverlong(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	err := a.Categories().SetDescription(ctx, cpath.RootCategory, nil)
	require.Error(t, err)

	cat := cpath.MustParseCategoryPath("work")
	require.NoError(t, a.Categories().Ensure(ctx, cat))
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	desc := string(long)
	err = a.Categories().SetDescription(ctx, cat, &desc)
	require.Error(t, err)

	short := "a team workspace"
	require.NoError(t, a.Categories().SetDescription(ctx, cat, &short))
	idx, err := a.Indexes().Load(ctx, cpath.RootCategory)
	require.NoError(t, err)
	require.Len(t, idx.Subcategories, 1)
	require.Equal(t, short, *idx.Subcategories[0].Description)
}
