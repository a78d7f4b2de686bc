package memops

import (
	"context"
	"sort"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// ListOptions scopes a list call. A nil Category means "all root categories".
type ListOptions struct {
	Category       *path.CategoryPath
	IncludeExpired bool
}

// ListedMemory is a memory entry as returned by list, annotated with
// its live expiry state.
type ListedMemory struct {
	category.MemoryEntry
	IsExpired bool
}

// ListResult mirrors the shape of a category index, scoped to the
// requested category (or all roots).
type ListResult struct {
	Category      path.CategoryPath
	Memories      []ListedMemory
	Subcategories []category.SubcategoryEntry
}

// List walks the index tree (never reading memory files except to
// evaluate expiry) and returns the memories and direct subcategories
// in scope.
func List(ctx context.Context, adapter storage.ScopedAdapter, opts ListOptions, now time.Time) (ListResult, error) {
	scope := path.RootCategory
	if opts.Category != nil {
		scope = *opts.Category
	}

	idx, err := adapter.Indexes().Load(ctx, scope)
	if err != nil {
		return ListResult{}, wrapStorage("load index", err)
	}
	if idx == nil {
		return ListResult{}, newErr(ErrCategoryNotFound, "category "+scope.String()+" does not exist", nil)
	}

	result := ListResult{Category: scope, Subcategories: append([]category.SubcategoryEntry(nil), idx.Subcategories...)}

	entries, err := collectMemoriesRecursive(ctx, adapter, scope)
	if err != nil {
		return ListResult{}, err
	}

	for _, entry := range entries {
		m, err := adapter.Memories().Load(ctx, entry.Path)
		if err != nil {
			return ListResult{}, wrapStorage("load memory "+entry.Path.String(), err)
		}
		if m == nil {
			continue
		}
		expired := m.IsExpired(now)
		if expired && !opts.IncludeExpired {
			continue
		}
		result.Memories = append(result.Memories, ListedMemory{MemoryEntry: entry, IsExpired: expired})
	}

	sort.Slice(result.Memories, func(i, j int) bool {
		return result.Memories[i].Path.String() < result.Memories[j].Path.String()
	})
	sort.Slice(result.Subcategories, func(i, j int) bool {
		return result.Subcategories[i].Path.String() < result.Subcategories[j].Path.String()
	})
	return result, nil
}

// collectMemoriesRecursive gathers every memory entry at and beneath
// scope by walking index files only.
func collectMemoriesRecursive(ctx context.Context, adapter storage.ScopedAdapter, scope path.CategoryPath) ([]category.MemoryEntry, error) {
	idx, err := adapter.Indexes().Load(ctx, scope)
	if err != nil {
		return nil, wrapStorage("load index for "+scope.String(), err)
	}
	if idx == nil {
		return nil, nil
	}
	entries := append([]category.MemoryEntry(nil), idx.Memories...)
	for _, sc := range idx.Subcategories {
		child, err := collectMemoriesRecursive(ctx, adapter, sc.Path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, child...)
	}
	return entries, nil
}
