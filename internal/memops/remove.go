package memops

import (
	"context"

	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// Remove deletes a memory and reindexes its parent category.
func Remove(ctx context.Context, adapter storage.ScopedAdapter, pathStr string) error {
	mp, err := path.ParseMemoryPath(pathStr)
	if err != nil {
		return newErr(ErrInvalidPath, err.Error(), err)
	}
	existing, err := adapter.Memories().Load(ctx, mp)
	if err != nil {
		return wrapStorage("load memory", err)
	}
	if existing == nil {
		return newErr(ErrMemoryNotFound, "memory "+mp.String()+" not found", nil)
	}
	if err := adapter.Memories().Remove(ctx, mp); err != nil {
		return wrapStorage("remove memory", err)
	}
	if _, err := adapter.Indexes().Reindex(ctx, mp.Category()); err != nil {
		return wrapStorage("memory removed but reindex failed", err)
	}
	return nil
}
