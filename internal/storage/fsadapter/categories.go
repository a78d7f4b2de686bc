package fsadapter

import (
	"context"
	"fmt"
	"os"

	"github.com/cortexmemory/cortex/internal/domain/category"
	cpath "github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// categoriesFacet implements storage.Categories. Category existence is
// the conjunction of "directory present" and "index.yaml present"
// (§4.4); Ensure and Delete keep both in lockstep.
type categoriesFacet struct {
	root  string
	cache *indexCache
}

func (f *categoriesFacet) Exists(ctx context.Context, c cpath.CategoryPath) (bool, error) {
	if c.IsRoot() {
		return true, nil
	}
	return categoryExistsOnDisk(f.root, c), nil
}

func (f *categoriesFacet) Ensure(ctx context.Context, c cpath.CategoryPath) error {
	segs := c.Segments()
	cur := cpath.RootCategory
	for _, seg := range segs {
		next, err := cur.Child(seg)
		if err != nil {
			return storage.NewAdapterError(storage.ErrInvalidState, "invalid category segment", err)
		}
		cur = next
		if categoryExistsOnDisk(f.root, cur) {
			continue
		}
		if err := ensureDir(categoryDir(f.root, cur)); err != nil {
			return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("create category directory %s", cur.String()), err)
		}
		empty, err := encodeIndex(category.Category{})
		if err != nil {
			return storage.NewAdapterError(storage.ErrIndex, "encode empty index", err)
		}
		if err := writeFileAtomic(indexPath(f.root, cur), empty); err != nil {
			return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("write index for %s", cur.String()), err)
		}
		if parent, ok := cur.Parent(); ok {
			if err := addSubcategoryEntry(f.root, f.cache, parent, cur); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *categoriesFacet) Delete(ctx context.Context, c cpath.CategoryPath) error {
	if c.IsRoot() {
		return storage.NewAdapterError(storage.ErrInvalidState, "cannot delete the root category", nil)
	}
	if !categoryExistsOnDisk(f.root, c) {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s not found", c.String()), nil)
	}
	if err := os.RemoveAll(categoryDir(f.root, c)); err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("remove category %s", c.String()), err)
	}
	f.cache.invalidate(c.String())
	if parent, ok := c.Parent(); ok {
		if err := removeSubcategoryEntry(f.root, f.cache, parent, c); err != nil {
			return err
		}
	}
	return nil
}

func (f *categoriesFacet) SetDescription(ctx context.Context, c cpath.CategoryPath, desc *string) error {
	if c.IsRoot() {
		return storage.NewAdapterError(storage.ErrInvalidState, "the root category has no description", nil)
	}
	if !category.ValidateDescription(desc) {
		return storage.NewAdapterError(storage.ErrInvalidState, "description exceeds maximum length", nil)
	}
	if !categoryExistsOnDisk(f.root, c) {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s not found", c.String()), nil)
	}
	parent, ok := c.Parent()
	if !ok {
		return storage.NewAdapterError(storage.ErrInvalidState, "unreachable: non-root category has no parent", nil)
	}
	return mutateIndex(f.root, f.cache, parent, func(idx *category.Category) {
		for i := range idx.Subcategories {
			if idx.Subcategories[i].Path.Equal(c) {
				idx.Subcategories[i].Description = desc
				return
			}
		}
	})
}

// addSubcategoryEntry inserts (or refreshes) child's entry in parent's
// index, with memoryCount 0 — child was just created empty.
func addSubcategoryEntry(root string, cache *indexCache, parent, child cpath.CategoryPath) error {
	return mutateIndex(root, cache, parent, func(idx *category.Category) {
		for i := range idx.Subcategories {
			if idx.Subcategories[i].Path.Equal(child) {
				return
			}
		}
		idx.Subcategories = append(idx.Subcategories, category.SubcategoryEntry{
			Path:        child,
			MemoryCount: 0,
		})
	})
}

func removeSubcategoryEntry(root string, cache *indexCache, parent, child cpath.CategoryPath) error {
	return mutateIndex(root, cache, parent, func(idx *category.Category) {
		out := idx.Subcategories[:0]
		for _, sc := range idx.Subcategories {
			if !sc.Path.Equal(child) {
				out = append(out, sc)
			}
		}
		idx.Subcategories = out
	})
}

// mutateIndex loads c's index, applies fn, normalizes, and writes it
// back, invalidating the cache entry.
func mutateIndex(root string, cache *indexCache, c cpath.CategoryPath, fn func(*category.Category)) error {
	idx, err := loadIndexFromDisk(root, c)
	if err != nil {
		return err
	}
	if idx == nil {
		empty := category.Category{}
		idx = &empty
	}
	fn(idx)
	*idx = idx.Normalize()
	data, err := encodeIndex(*idx)
	if err != nil {
		return storage.NewAdapterError(storage.ErrIndex, fmt.Sprintf("encode index for %s", c.String()), err)
	}
	if err := writeFileAtomic(indexPath(root, c), data); err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("write index for %s", c.String()), err)
	}
	cache.invalidate(c.String())
	return nil
}

func loadIndexFromDisk(root string, c cpath.CategoryPath) (*category.Category, error) {
	data, err := os.ReadFile(indexPath(root, c))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("read index for %s", c.String()), err)
	}
	idx, err := decodeIndex(data)
	if err != nil {
		return nil, storage.NewAdapterError(storage.ErrIndex, fmt.Sprintf("decode index for %s", c.String()), err)
	}
	return &idx, nil
}
