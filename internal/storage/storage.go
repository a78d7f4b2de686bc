// Package storage defines the four-facet storage adapter port (§4.3):
// Memories, Indexes, Categories, and (root-only) Stores. Concrete
// backends — the filesystem adapter in internal/storage/fsadapter and
// test-only in-memory adapters — implement ScopedAdapter.
package storage

import (
	"context"

	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
)

// ReindexReport is returned by Indexes.Reindex: the scope that was
// rebuilt plus any warnings for memories that were skipped rather than
// failing the whole operation.
type ReindexReport struct {
	Scope       path.CategoryPath
	Rebuilt     int
	Warnings    []string
}

// Memories is the facet for reading and writing individual memory files.
type Memories interface {
	// Load returns (nil, nil) if the memory is absent. Does not filter
	// by expiration — that is an operations-layer concern.
	Load(ctx context.Context, p path.MemoryPath) (*memory.Memory, error)
	// Save creates or overwrites. Requires the parent category to
	// already exist; returns ErrNotFound otherwise.
	Save(ctx context.Context, p path.MemoryPath, m memory.Memory) error
	// Remove fails with ErrNotFound if p is absent.
	Remove(ctx context.Context, p path.MemoryPath) error
	// Move is atomic within the adapter. Fails with ErrNotFound if
	// source is missing, ErrAlreadyExists if dest exists.
	Move(ctx context.Context, source, dest path.MemoryPath) error
}

// Indexes is the facet for reading and maintaining category indexes.
type Indexes interface {
	// Load returns (nil, nil) if the category itself doesn't exist.
	Load(ctx context.Context, c path.CategoryPath) (*category.Category, error)
	// Reindex rebuilds every index at and beneath scope from ground
	// truth (memory files + category directories).
	Reindex(ctx context.Context, scope path.CategoryPath) (ReindexReport, error)
	// UpdateAfterMemoryWrite incrementally reflects a single memory
	// insertion/overwrite in its parent category's index (and the
	// grandparent's subcategory memoryCount, if that count changed).
	UpdateAfterMemoryWrite(ctx context.Context, m memory.Memory) error
}

// Categories is the facet for category existence and lifecycle.
type Categories interface {
	Exists(ctx context.Context, c path.CategoryPath) (bool, error)
	// Ensure creates c and all missing ancestors; idempotent.
	Ensure(ctx context.Context, c path.CategoryPath) error
	// Delete recursively removes c, its subcategories, their memories,
	// and all associated index entries.
	Delete(ctx context.Context, c path.CategoryPath) error
	// SetDescription sets (desc != nil) or clears (desc == nil) c's
	// description. Fails on root category or descriptions over 500 chars.
	SetDescription(ctx context.Context, c path.CategoryPath, desc *string) error
}

// StoreRecord is the persisted form of one entry in the store registry.
type StoreRecord struct {
	Name       string
	Kind       string
	Properties map[string]any
}

// Stores is the facet present only on the root (unscoped) adapter: it
// manages the persisted store registry itself, not a particular store's
// contents.
type Stores interface {
	Load(ctx context.Context) ([]StoreRecord, error)
	Save(ctx context.Context, records []StoreRecord) error
	Remove(ctx context.Context, name string) error
}

// ScopedAdapter is a storage backend bound to exactly one store's root.
type ScopedAdapter interface {
	Memories() Memories
	Indexes() Indexes
	Categories() Categories
}

// Factory produces a ScopedAdapter from a store's kind-specific
// properties (e.g. {"path": "/abs/dir"} for the filesystem kind). It is
// a pure function: safe to invoke concurrently, with no state of its
// own (§4.8, §5).
type Factory func(ctx context.Context, properties map[string]any) (ScopedAdapter, error)
