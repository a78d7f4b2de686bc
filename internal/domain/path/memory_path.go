package path

import "strings"

// MemoryPath is the (category, slug) address of a memory. Category
// must have depth >= 1: a memory always lives inside at least one
// category.
type MemoryPath struct {
	category CategoryPath
	slug     Slug
}

// ParseMemoryPath splits s on its last "/" into a category path and a
// slug. The category portion is normalized exactly as ParseCategoryPath
// does (so "a/b//c" and "a/b/c" canonicalize identically). Returns
// ErrMissingCategory if the resulting category has depth 0.
func ParseMemoryPath(s string) (MemoryPath, error) {
	idx := strings.LastIndex(s, "/")
	if idx < 0 {
		return MemoryPath{}, newErr(ErrMissingCategory, s, "memory path must include at least one category segment before the slug")
	}
	catStr, slugStr := s[:idx], s[idx+1:]

	cat, err := ParseCategoryPath(catStr)
	if err != nil {
		return MemoryPath{}, err
	}
	if cat.IsRoot() {
		return MemoryPath{}, newErr(ErrMissingCategory, s, "memory path must include at least one category segment before the slug")
	}
	sl, err := ParseSlug(slugStr)
	if err != nil {
		return MemoryPath{}, err
	}
	return MemoryPath{category: cat, slug: sl}, nil
}

// NewMemoryPath builds a MemoryPath from an already-validated category
// and slug. category.Depth() must be >= 1.
func NewMemoryPath(category CategoryPath, slug Slug) (MemoryPath, error) {
	if category.IsRoot() {
		return MemoryPath{}, newErr(ErrMissingCategory, slug.String(), "memory path must include at least one category segment before the slug")
	}
	return MemoryPath{category: category, slug: slug}, nil
}

// Category returns the memory's parent category path.
func (m MemoryPath) Category() CategoryPath { return m.category }

// Slug returns the memory's slug.
func (m MemoryPath) Slug() Slug { return m.slug }

// String renders the canonical "category/slug" form.
func (m MemoryPath) String() string {
	return m.category.String() + "/" + m.slug.String()
}

// Equal reports whether two memory paths have the same canonical form.
func (m MemoryPath) Equal(other MemoryPath) bool {
	return m.String() == other.String()
}
