// Package fsadapter implements the filesystem storage adapter (§4.4):
// one markdown file per memory, one index.yaml per category, all
// writes atomic via write-to-temp-then-rename.
package fsadapter

import (
	"context"
	"fmt"
	"os"

	"github.com/cortexmemory/cortex/internal/domain/category"
	cpath "github.com/cortexmemory/cortex/internal/domain/path"
	registry "github.com/cortexmemory/cortex/internal/registry/adapter"
	"github.com/cortexmemory/cortex/internal/storage"
)

const Kind = "filesystem"

func init() {
	registry.Register(registry.Plugin{Name: Kind, Factory: New})
}

// Adapter is the filesystem-backed storage.ScopedAdapter, rooted at a
// single absolute directory.
type Adapter struct {
	root       string
	memories   *memoriesFacet
	categories *categoriesFacet
	indexes    *indexesFacet
}

// New is the storage.Factory for the "filesystem" kind. properties
// must contain a "path" string: the store's absolute root directory.
func New(ctx context.Context, properties map[string]any) (storage.ScopedAdapter, error) {
	raw, ok := properties["path"]
	if !ok {
		return nil, fmt.Errorf("filesystem adapter requires a %q property", "path")
	}
	root, ok := raw.(string)
	if !ok || root == "" {
		return nil, fmt.Errorf("filesystem adapter %q property must be a non-empty string", "path")
	}
	if err := ensureRootIndex(root); err != nil {
		return nil, fmt.Errorf("initialize store root %s: %w", root, err)
	}
	cache := newIndexCache()
	return &Adapter{
		root:       root,
		memories:   &memoriesFacet{root: root},
		categories: &categoriesFacet{root: root, cache: cache},
		indexes:    &indexesFacet{root: root, cache: cache},
	}, nil
}

func (a *Adapter) Memories() storage.Memories     { return a.memories }
func (a *Adapter) Categories() storage.Categories { return a.categories }
func (a *Adapter) Indexes() storage.Indexes       { return a.indexes }

// ensureRootIndex creates the store root's memory directory and its
// index.yaml if they don't already exist. The root category always
// "exists" logically; this just makes that true on disk too.
func ensureRootIndex(root string) error {
	dir := categoryDir(root, cpath.RootCategory)
	if err := ensureDir(dir); err != nil {
		return err
	}
	idxPath := indexPath(root, cpath.RootCategory)
	if _, err := os.Stat(idxPath); err == nil {
		return nil
	}
	empty, err := encodeIndex(category.Category{})
	if err != nil {
		return err
	}
	return writeFileAtomic(idxPath, empty)
}
