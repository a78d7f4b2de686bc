package memops

import (
	"context"

	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// Move relocates a memory from one path to another, reindexing the
// lowest common ancestor of both categories (§4.5, §9).
func Move(ctx context.Context, adapter storage.ScopedAdapter, fromStr, toStr string) error {
	from, err := path.ParseMemoryPath(fromStr)
	if err != nil {
		return newErr(ErrInvalidPath, err.Error(), err)
	}
	to, err := path.ParseMemoryPath(toStr)
	if err != nil {
		return newErr(ErrInvalidPath, err.Error(), err)
	}
	if from.Equal(to) {
		return nil
	}

	existing, err := adapter.Memories().Load(ctx, from)
	if err != nil {
		return wrapStorage("load source memory", err)
	}
	if existing == nil {
		return newErr(ErrMemoryNotFound, "memory "+from.String()+" not found", nil)
	}

	destExisting, err := adapter.Memories().Load(ctx, to)
	if err != nil {
		return wrapStorage("check destination memory", err)
	}
	if destExisting != nil {
		return newErr(ErrDestinationExists, "memory "+to.String()+" already exists", nil)
	}

	if err := adapter.Categories().Ensure(ctx, to.Category()); err != nil {
		return wrapStorage("ensure destination category", err)
	}
	if err := adapter.Memories().Move(ctx, from, to); err != nil {
		return wrapStorage("move memory", err)
	}

	scope := path.LowestCommonAncestor(from.Category(), to.Category())
	if _, err := adapter.Indexes().Reindex(ctx, scope); err != nil {
		return wrapStorage("memory moved but reindex failed", err)
	}
	return nil
}
