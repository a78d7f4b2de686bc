package memops

import (
	"context"
	"sort"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// RecentOptions controls recent's scope and pagination. Limit is only
// honored when HasLimit is true, distinguishing "caller didn't specify
// a limit" (apply the default) from an explicit Limit: 0 (return
// nothing, per spec.md's boundary case), the same three-valued shape
// Updates uses for ExpiresAt.
type RecentOptions struct {
	Category       *string
	Limit          int
	HasLimit       bool
	IncludeExpired bool
}

// RecentResult is the label ("all" if unscoped) plus the memories found.
type RecentResult struct {
	CategoryLabel string
	Memories      []memory.Memory
}

const defaultRecentLimit = 5

// Recent returns the most recently updated memories at and beneath the
// given scope (or the whole store), newest first.
func Recent(ctx context.Context, adapter storage.ScopedAdapter, opts RecentOptions, now time.Time) (RecentResult, error) {
	limit := defaultRecentLimit
	if opts.HasLimit {
		limit = opts.Limit
	}

	scope := path.RootCategory
	label := "all"
	if opts.Category != nil {
		p, err := path.ParseCategoryPath(*opts.Category)
		if err != nil {
			return RecentResult{}, newErr(ErrInvalidPath, err.Error(), err)
		}
		scope = p
		label = *opts.Category
	}

	if limit <= 0 {
		return RecentResult{CategoryLabel: label}, nil
	}

	entries, err := collectMemoriesRecursive(ctx, adapter, scope)
	if err != nil {
		return RecentResult{}, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].UpdatedAt, entries[j].UpdatedAt
		if a == nil && b == nil {
			return false
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	result := RecentResult{CategoryLabel: label}
	for _, entry := range entries {
		if len(result.Memories) >= limit {
			break
		}
		m, err := adapter.Memories().Load(ctx, entry.Path)
		if err != nil {
			return RecentResult{}, wrapStorage("load memory "+entry.Path.String(), err)
		}
		if m == nil {
			continue
		}
		if m.IsExpired(now) && !opts.IncludeExpired {
			continue
		}
		result.Memories = append(result.Memories, *m)
	}
	return result, nil
}
