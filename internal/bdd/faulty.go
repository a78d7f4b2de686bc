package bdd

import (
	"context"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/storage"
)

// faultyAdapter wraps a real storage.ScopedAdapter and can be toggled
// to fail UpdateAfterMemoryWrite while every other call still reaches
// the wrapped adapter, exercising the reindex-recovery path (spec
// Scenario F) without needing a dedicated fake backend.
type faultyAdapter struct {
	storage.ScopedAdapter
	indexes *faultyIndexes
}

func newFaultyAdapter(inner storage.ScopedAdapter) *faultyAdapter {
	fi := &faultyIndexes{Indexes: inner.Indexes()}
	return &faultyAdapter{ScopedAdapter: inner, indexes: fi}
}

func (a *faultyAdapter) Indexes() storage.Indexes { return a.indexes }

func (a *faultyAdapter) setBroken(broken bool) { a.indexes.broken = broken }

type faultyIndexes struct {
	storage.Indexes
	broken bool
}

func (i *faultyIndexes) UpdateAfterMemoryWrite(ctx context.Context, m memory.Memory) error {
	if i.broken {
		return storage.NewAdapterError(storage.ErrIndex, "simulated index update failure", nil)
	}
	return i.Indexes.UpdateAfterMemoryWrite(ctx, m)
}
