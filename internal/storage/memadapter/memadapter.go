// Package memadapter is an in-memory storage.ScopedAdapter used by
// operation-layer tests that don't need real filesystem behavior
// (§4.8's adapter-factory injection point).
package memadapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// Adapter is a storage.ScopedAdapter backed entirely by in-process
// maps, guarded by a single mutex. Not registered in the storage-kind
// plugin registry: constructed directly by tests via New.
type Adapter struct {
	mu         sync.Mutex
	memories   map[string]memory.Memory
	categories map[string]bool
	indexes    map[string]category.Category
}

// New returns an empty in-memory adapter with just the root category present.
func New() *Adapter {
	a := &Adapter{
		memories:   map[string]memory.Memory{},
		categories: map[string]bool{"": true},
		indexes:    map[string]category.Category{"": {}},
	}
	return a
}

func (a *Adapter) Memories() storage.Memories     { return memoriesFacet{a} }
func (a *Adapter) Categories() storage.Categories { return categoriesFacet{a} }
func (a *Adapter) Indexes() storage.Indexes       { return indexesFacet{a} }

type memoriesFacet struct{ a *Adapter }

func (f memoriesFacet) Load(ctx context.Context, p path.MemoryPath) (*memory.Memory, error) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	m, ok := f.a.memories[p.String()]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f memoriesFacet) Save(ctx context.Context, p path.MemoryPath, m memory.Memory) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	if !f.a.categories[p.Category().String()] {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s does not exist", p.Category().String()), nil)
	}
	f.a.memories[p.String()] = m
	return nil
}

func (f memoriesFacet) Remove(ctx context.Context, p path.MemoryPath) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	if _, ok := f.a.memories[p.String()]; !ok {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("memory %s not found", p.String()), nil)
	}
	delete(f.a.memories, p.String())
	return nil
}

func (f memoriesFacet) Move(ctx context.Context, source, dest path.MemoryPath) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	m, ok := f.a.memories[source.String()]
	if !ok {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("memory %s not found", source.String()), nil)
	}
	if _, exists := f.a.memories[dest.String()]; exists {
		return storage.NewAdapterError(storage.ErrAlreadyExists, fmt.Sprintf("memory %s already exists", dest.String()), nil)
	}
	if !f.a.categories[dest.Category().String()] {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s does not exist", dest.Category().String()), nil)
	}
	moved, err := memory.Init(dest, m.Metadata(), m.Content())
	if err != nil {
		return storage.NewAdapterError(storage.ErrInvalidState, "rebuild memory at destination path", err)
	}
	delete(f.a.memories, source.String())
	f.a.memories[dest.String()] = moved
	return nil
}

type categoriesFacet struct{ a *Adapter }

func (f categoriesFacet) Exists(ctx context.Context, c path.CategoryPath) (bool, error) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	return f.a.categories[c.String()], nil
}

func (f categoriesFacet) Ensure(ctx context.Context, c path.CategoryPath) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	cur := path.RootCategory
	for _, seg := range c.Segments() {
		next, err := cur.Child(seg)
		if err != nil {
			return storage.NewAdapterError(storage.ErrInvalidState, "invalid category segment", err)
		}
		if !f.a.categories[next.String()] {
			f.a.categories[next.String()] = true
			f.a.indexes[next.String()] = category.Category{}
			parentIdx := f.a.indexes[cur.String()]
			parentIdx.Subcategories = append(parentIdx.Subcategories, category.SubcategoryEntry{Path: next})
			f.a.indexes[cur.String()] = parentIdx.Normalize()
		}
		cur = next
	}
	return nil
}

func (f categoriesFacet) Delete(ctx context.Context, c path.CategoryPath) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	if c.IsRoot() {
		return storage.NewAdapterError(storage.ErrInvalidState, "cannot delete the root category", nil)
	}
	if !f.a.categories[c.String()] {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s not found", c.String()), nil)
	}
	prefix := c.String() + "/"
	for key := range f.a.categories {
		if key == c.String() || stringsHasPrefix(key, prefix) {
			delete(f.a.categories, key)
			delete(f.a.indexes, key)
		}
	}
	for key := range f.a.memories {
		m := f.a.memories[key]
		mc := m.Path().Category().String()
		if mc == c.String() || stringsHasPrefix(mc, prefix) {
			delete(f.a.memories, key)
		}
	}
	parent, ok := c.Parent()
	if ok {
		idx := f.a.indexes[parent.String()]
		out := idx.Subcategories[:0]
		for _, sc := range idx.Subcategories {
			if !sc.Path.Equal(c) {
				out = append(out, sc)
			}
		}
		idx.Subcategories = out
		f.a.indexes[parent.String()] = idx
	}
	return nil
}

func (f categoriesFacet) SetDescription(ctx context.Context, c path.CategoryPath, desc *string) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	if c.IsRoot() {
		return storage.NewAdapterError(storage.ErrInvalidState, "the root category has no description", nil)
	}
	if !category.ValidateDescription(desc) {
		return storage.NewAdapterError(storage.ErrInvalidState, "description exceeds maximum length", nil)
	}
	if !f.a.categories[c.String()] {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s not found", c.String()), nil)
	}
	parent, _ := c.Parent()
	idx := f.a.indexes[parent.String()]
	for i := range idx.Subcategories {
		if idx.Subcategories[i].Path.Equal(c) {
			idx.Subcategories[i].Description = desc
		}
	}
	f.a.indexes[parent.String()] = idx
	return nil
}

type indexesFacet struct{ a *Adapter }

func (f indexesFacet) Load(ctx context.Context, c path.CategoryPath) (*category.Category, error) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	if !c.IsRoot() && !f.a.categories[c.String()] {
		return nil, nil
	}
	idx := f.a.indexes[c.String()]
	return &idx, nil
}

func (f indexesFacet) Reindex(ctx context.Context, scope path.CategoryPath) (storage.ReindexReport, error) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	report := storage.ReindexReport{Scope: scope}
	if !scope.IsRoot() && !f.a.categories[scope.String()] {
		return report, storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s not found", scope.String()), nil)
	}
	for key := range f.a.categories {
		cp, err := path.ParseCategoryPath(key)
		if err != nil {
			continue
		}
		if !scope.IsRoot() && !cp.Equal(scope) && !cp.HasPrefix(scope) {
			continue
		}
		var fresh category.Category
		for _, m := range f.a.memories {
			if m.Path().Category().Equal(cp) {
				fresh.Memories = append(fresh.Memories, category.MemoryEntry{
					Path:          m.Path(),
					TokenEstimate: len(m.Content()),
				})
			}
		}
		for childKey := range f.a.categories {
			childPath, err := path.ParseCategoryPath(childKey)
			if err != nil {
				continue
			}
			parent, ok := childPath.Parent()
			if !ok || !parent.Equal(cp) {
				continue
			}
			count := 0
			for _, m := range f.a.memories {
				if m.Path().Category().Equal(childPath) {
					count++
				}
			}
			old := f.a.indexes[cp.String()]
			var desc *string
			for _, sc := range old.Subcategories {
				if sc.Path.Equal(childPath) {
					desc = sc.Description
				}
			}
			fresh.Subcategories = append(fresh.Subcategories, category.SubcategoryEntry{
				Path:        childPath,
				MemoryCount: count,
				Description: desc,
			})
		}
		fresh = fresh.Normalize()
		f.a.indexes[cp.String()] = fresh
		report.Rebuilt++
	}
	return report, nil
}

func (f indexesFacet) UpdateAfterMemoryWrite(ctx context.Context, m memory.Memory) error {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	parent := m.Path().Category()
	idx := f.a.indexes[parent.String()]
	found := false
	updatedAt := m.Metadata().UpdatedAt
	entry := category.MemoryEntry{Path: m.Path(), TokenEstimate: len(m.Content()), UpdatedAt: &updatedAt}
	for i := range idx.Memories {
		if idx.Memories[i].Path.Equal(m.Path()) {
			entry.Summary = idx.Memories[i].Summary
			idx.Memories[i] = entry
			found = true
			break
		}
	}
	if !found {
		idx.Memories = append(idx.Memories, entry)
	}
	f.a.indexes[parent.String()] = idx.Normalize()

	grandparent, ok := parent.Parent()
	if !ok {
		return nil
	}
	count := 0
	for _, mem := range f.a.memories {
		if mem.Path().Category().Equal(parent) {
			count++
		}
	}
	gIdx := f.a.indexes[grandparent.String()]
	for i := range gIdx.Subcategories {
		if gIdx.Subcategories[i].Path.Equal(parent) {
			gIdx.Subcategories[i].MemoryCount = count
		}
	}
	f.a.indexes[grandparent.String()] = gIdx
	return nil
}

func stringsHasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
