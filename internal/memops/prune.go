package memops

import (
	"context"
	"sort"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// PruneOptions controls prune's behavior.
type PruneOptions struct {
	DryRun bool
}

// Prune removes (or, in dry-run mode, reports) every expired memory at
// and beneath scope.
func Prune(ctx context.Context, adapter storage.ScopedAdapter, scope path.CategoryPath, opts PruneOptions, now time.Time) ([]memory.Memory, error) {
	entries, err := collectMemoriesRecursive(ctx, adapter, scope)
	if err != nil {
		return nil, err
	}

	var expired []memory.Memory
	for _, entry := range entries {
		m, err := adapter.Memories().Load(ctx, entry.Path)
		if err != nil {
			return nil, wrapStorage("load memory "+entry.Path.String(), err)
		}
		if m == nil || !m.IsExpired(now) {
			continue
		}
		expired = append(expired, *m)
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].Path().String() < expired[j].Path().String()
	})

	if opts.DryRun || len(expired) == 0 {
		return expired, nil
	}

	removedAny := false
	for _, m := range expired {
		if err := adapter.Memories().Remove(ctx, m.Path()); err != nil {
			return nil, wrapStorage("remove expired memory "+m.Path().String(), err)
		}
		removedAny = true
	}
	if removedAny {
		if _, err := adapter.Indexes().Reindex(ctx, scope); err != nil {
			return nil, wrapStorage("expired memories removed but reindex failed", err)
		}
	}
	return expired, nil
}
