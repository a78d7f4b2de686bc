package fsadapter

import (
	"context"
	"fmt"
	"os"

	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/memory"
	cpath "github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// indexesFacet implements storage.Indexes. Indexes are always derived:
// Reindex is the ground-truth rebuild; UpdateAfterMemoryWrite is the
// fast incremental path taken after every memory write.
type indexesFacet struct {
	root  string
	cache *indexCache
}

func (f *indexesFacet) Load(ctx context.Context, c cpath.CategoryPath) (*category.Category, error) {
	if !c.IsRoot() && !categoryExistsOnDisk(f.root, c) {
		return nil, nil
	}
	if cached, ok := f.cache.get(c.String()); ok {
		return &cached, nil
	}
	idx, err := loadIndexFromDisk(f.root, c)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		empty := category.Category{}
		idx = &empty
	}
	f.cache.set(c.String(), *idx)
	return idx, nil
}

func (f *indexesFacet) Reindex(ctx context.Context, scope cpath.CategoryPath) (storage.ReindexReport, error) {
	report := storage.ReindexReport{Scope: scope}
	if !scope.IsRoot() && !categoryExistsOnDisk(f.root, scope) {
		return report, storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s not found", scope.String()), nil)
	}
	_, rebuilt, warnings, err := f.reindexRecursive(scope)
	report.Rebuilt = rebuilt
	report.Warnings = warnings
	return report, err
}

// reindexRecursive rebuilds scope's own index.yaml (and every index
// beneath it) from the memory files and subdirectories physically
// present on disk, preserving summary/description annotations carried
// over from the prior index since neither is derivable from ground
// truth (§9).
func (f *indexesFacet) reindexRecursive(scope cpath.CategoryPath) (category.Category, int, []string, error) {
	dir := categoryDir(f.root, scope)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return category.Category{}, 0, nil, storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("list %s", dir), err)
	}

	old, err := loadIndexFromDisk(f.root, scope)
	if err != nil {
		return category.Category{}, 0, nil, err
	}
	oldSummaries := map[string]*string{}
	oldDescriptions := map[string]*string{}
	if old != nil {
		for _, m := range old.Memories {
			oldSummaries[m.Path.String()] = m.Summary
		}
		for _, s := range old.Subcategories {
			oldDescriptions[s.Path.String()] = s.Description
		}
	}

	var warnings []string
	rebuilt := 1
	var fresh category.Category

	for _, e := range entries {
		name := e.Name()
		switch {
		case !e.IsDir() && name != indexFileName:
			mp, ok := memoryFileToPath(scope, name)
			if !ok {
				continue
			}
			raw, err := os.ReadFile(dir + "/" + name)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: read failed: %v", mp.String(), err))
				continue
			}
			parsed, err := parseMemoryFile(string(raw))
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", mp.String(), err))
				continue
			}
			if _, err := memory.Init(mp, memory.Metadata{
				CreatedAt: parsed.CreatedAt,
				UpdatedAt: parsed.UpdatedAt,
				Tags:      parsed.Tags,
				Source:    parsed.Source,
				ExpiresAt: parsed.ExpiresAt,
				Citations: parsed.Citations,
			}, parsed.Body); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", mp.String(), err))
				continue
			}
			updatedAt := parsed.UpdatedAt
			fresh.Memories = append(fresh.Memories, category.MemoryEntry{
				Path:          mp,
				TokenEstimate: estimateTokens(parsed.Body),
				Summary:       oldSummaries[mp.String()],
				UpdatedAt:     &updatedAt,
			})
		case e.IsDir() && looksLikeCategoryDir(name):
			child, err := scope.Child(name)
			if err != nil {
				continue
			}
			_, childRebuilt, childWarnings, err := f.reindexRecursive(child)
			if err != nil {
				return category.Category{}, 0, nil, err
			}
			rebuilt += childRebuilt
			warnings = append(warnings, childWarnings...)

			count, err := directMemoryFileCount(dir + "/" + name)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", child.String(), err))
			}
			fresh.Subcategories = append(fresh.Subcategories, category.SubcategoryEntry{
				Path:        child,
				MemoryCount: count,
				Description: oldDescriptions[child.String()],
			})
		}
	}

	fresh = fresh.Normalize()
	data, err := encodeIndex(fresh)
	if err != nil {
		return category.Category{}, 0, nil, storage.NewAdapterError(storage.ErrIndex, fmt.Sprintf("encode index for %s", scope.String()), err)
	}
	if err := writeFileAtomic(indexPath(f.root, scope), data); err != nil {
		return category.Category{}, 0, nil, storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("write index for %s", scope.String()), err)
	}
	f.cache.set(scope.String(), fresh)
	f.cache.wait()
	return fresh, rebuilt, warnings, nil
}

func (f *indexesFacet) UpdateAfterMemoryWrite(ctx context.Context, m memory.Memory) error {
	parent := m.Path().Category()
	meta := m.Metadata()
	err := mutateIndex(f.root, f.cache, parent, func(idx *category.Category) {
		updatedAt := meta.UpdatedAt
		entry := category.MemoryEntry{
			Path:          m.Path(),
			TokenEstimate: estimateTokens(m.Content()),
			UpdatedAt:     &updatedAt,
		}
		found := false
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
	})
	if err != nil {
		return err
	}
	grandparent, ok := parent.Parent()
	if !ok {
		return nil
	}
	count, countErr := directMemoryFileCount(categoryDir(f.root, parent))
	if countErr != nil {
		return storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("count memories in %s", parent.String()), countErr)
	}
	return mutateIndex(f.root, f.cache, grandparent, func(idx *category.Category) {
		for i := range idx.Subcategories {
			if idx.Subcategories[i].Path.Equal(parent) {
				idx.Subcategories[i].MemoryCount = count
				return
			}
		}
	})
}

// memoryFileToPath converts a ".md" filename within category into its
// MemoryPath, or false if it isn't a valid memory filename.
func memoryFileToPath(category cpath.CategoryPath, filename string) (cpath.MemoryPath, bool) {
	const suffix = ".md"
	if len(filename) <= len(suffix) || filename[len(filename)-len(suffix):] != suffix {
		return cpath.MemoryPath{}, false
	}
	slugStr := filename[:len(filename)-len(suffix)]
	slug, err := cpath.ParseSlug(slugStr)
	if err != nil {
		return cpath.MemoryPath{}, false
	}
	mp, err := cpath.NewMemoryPath(category, slug)
	if err != nil {
		return cpath.MemoryPath{}, false
	}
	return mp, true
}

func directMemoryFileCount(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && len(e.Name()) > 3 && e.Name()[len(e.Name())-3:] == ".md" {
			count++
		}
	}
	return count, nil
}
