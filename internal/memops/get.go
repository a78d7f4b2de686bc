package memops

import (
	"context"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// GetOptions controls whether expired memories are returned.
type GetOptions struct {
	IncludeExpired bool
}

// Get loads a single memory by path.
func Get(ctx context.Context, adapter storage.ScopedAdapter, pathStr string, opts GetOptions, now time.Time) (memory.Memory, error) {
	mp, err := path.ParseMemoryPath(pathStr)
	if err != nil {
		return memory.Memory{}, newErr(ErrInvalidPath, err.Error(), err)
	}
	m, err := adapter.Memories().Load(ctx, mp)
	if err != nil {
		return memory.Memory{}, wrapStorage("load memory", err)
	}
	if m == nil {
		return memory.Memory{}, newErr(ErrMemoryNotFound, "memory "+mp.String()+" not found", nil)
	}
	if m.IsExpired(now) && !opts.IncludeExpired {
		return memory.Memory{}, newErr(ErrMemoryExpired, "memory "+mp.String()+" is expired", nil)
	}
	return *m, nil
}
