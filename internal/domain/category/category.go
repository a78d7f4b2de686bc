// Package category defines the Category index entity: the derived,
// on-disk projection listing a category's direct memories and direct
// subcategories.
package category

import (
	"sort"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/path"
)

// MaxDescriptionLength is the hard cap on category descriptions (§3).
const MaxDescriptionLength = 500

// MemoryEntry is the index projection of a single memory.
type MemoryEntry struct {
	Path          path.MemoryPath
	TokenEstimate int
	Summary       *string
	UpdatedAt     *time.Time
}

// SubcategoryEntry describes a direct child category.
type SubcategoryEntry struct {
	Path        path.CategoryPath
	MemoryCount int
	Description *string
}

// Category is the stable-ordered index for one category: its direct
// memories and direct subcategories, both sorted by path.
type Category struct {
	Memories      []MemoryEntry
	Subcategories []SubcategoryEntry
}

// Normalize sorts Memories and Subcategories by canonical path, ties
// broken lexicographically (paths are already unique so this simply
// establishes the stable order required by §3).
func (c Category) Normalize() Category {
	memories := append([]MemoryEntry(nil), c.Memories...)
	sort.Slice(memories, func(i, j int) bool {
		return memories[i].Path.String() < memories[j].Path.String()
	})
	subs := append([]SubcategoryEntry(nil), c.Subcategories...)
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Path.String() < subs[j].Path.String()
	})
	return Category{Memories: memories, Subcategories: subs}
}

// ValidateDescription enforces the 500-char cap described in §3.
func ValidateDescription(desc *string) bool {
	return desc == nil || len(*desc) <= MaxDescriptionLength
}
