package memops

import (
	"context"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// CreateInput is the caller-supplied content for a new memory. Tags and
// Citations default to empty when nil.
type CreateInput struct {
	Content   string
	Tags      []string
	Source    string
	ExpiresAt *time.Time
	Citations []string
}

// Create builds and persists a new memory at pathStr. The category
// must already exist; Create never creates it implicitly.
func Create(ctx context.Context, adapter storage.ScopedAdapter, pathStr string, input CreateInput, now time.Time) (memory.Memory, error) {
	mp, err := path.ParseMemoryPath(pathStr)
	if err != nil {
		return memory.Memory{}, newErr(ErrInvalidPath, err.Error(), err)
	}

	exists, err := adapter.Categories().Exists(ctx, mp.Category())
	if err != nil {
		return memory.Memory{}, wrapStorage("check category existence", err)
	}
	if !exists {
		return memory.Memory{}, newErr(ErrCategoryNotFound, "category "+mp.Category().String()+" does not exist; create it first", nil)
	}

	m, err := memory.Init(mp, memory.Metadata{
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      input.Tags,
		Source:    input.Source,
		ExpiresAt: input.ExpiresAt,
		Citations: input.Citations,
	}, input.Content)
	if err != nil {
		return memory.Memory{}, newErr(ErrInvalidInput, err.Error(), err)
	}

	if err := adapter.Memories().Save(ctx, mp, m); err != nil {
		return memory.Memory{}, wrapStorage("save memory", err)
	}
	if err := adapter.Indexes().UpdateAfterMemoryWrite(ctx, m); err != nil {
		return memory.Memory{}, wrapStorage("memory saved but index update failed; run a reindex", err)
	}
	return m, nil
}
