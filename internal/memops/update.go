package memops

import (
	"context"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// ExpiresAtUpdate is the three-valued field update for Updates.ExpiresAt:
// Keep leaves the existing value untouched, Clear removes it, and with
// neither flag set Value replaces it. It only applies when
// Updates.HasExpiresAt is true.
type ExpiresAtUpdate struct {
	Keep  bool
	Clear bool
	Value time.Time
}

// Updates carries the optional fields of an update call. A nil Content
// leaves the content unchanged. Tags, Citations and ExpiresAt apply
// only when their Has* flag is true; a flagged Tags or Citations slice
// (possibly empty) replaces the existing one entirely.
type Updates struct {
	Content   *string
	Tags      []string
	HasTags   bool
	ExpiresAt ExpiresAtUpdate
	HasExpiresAt bool
	Citations    []string
	HasCitations bool
}

// Update merges the given fields into the existing memory at pathStr
// and persists the result.
func Update(ctx context.Context, adapter storage.ScopedAdapter, pathStr string, updates Updates, now time.Time) (memory.Memory, error) {
	if updates.Content == nil && !updates.HasTags && !updates.HasExpiresAt && !updates.HasCitations {
		return memory.Memory{}, newErr(ErrInvalidInput, "update requires at least one field", nil)
	}

	mp, err := path.ParseMemoryPath(pathStr)
	if err != nil {
		return memory.Memory{}, newErr(ErrInvalidPath, err.Error(), err)
	}

	existing, err := adapter.Memories().Load(ctx, mp)
	if err != nil {
		return memory.Memory{}, wrapStorage("load memory", err)
	}
	if existing == nil {
		return memory.Memory{}, newErr(ErrMemoryNotFound, "memory "+mp.String()+" not found", nil)
	}

	meta := existing.Metadata()
	content := existing.Content()
	if updates.Content != nil {
		content = *updates.Content
	}
	if updates.HasTags {
		meta.Tags = updates.Tags
	}
	if updates.HasCitations {
		meta.Citations = updates.Citations
	}
	if updates.HasExpiresAt {
		switch {
		case updates.ExpiresAt.Clear:
			meta.ExpiresAt = nil
		case updates.ExpiresAt.Keep:
			// no change
		default:
			v := updates.ExpiresAt.Value
			meta.ExpiresAt = &v
		}
	}
	meta.UpdatedAt = now

	updated, err := memory.Init(mp, meta, content)
	if err != nil {
		return memory.Memory{}, newErr(ErrInvalidInput, err.Error(), err)
	}

	if err := adapter.Memories().Save(ctx, mp, updated); err != nil {
		return memory.Memory{}, wrapStorage("save memory", err)
	}
	if err := adapter.Indexes().UpdateAfterMemoryWrite(ctx, updated); err != nil {
		return memory.Memory{}, wrapStorage("memory saved but index update failed; run a reindex", err)
	}
	return updated, nil
}
