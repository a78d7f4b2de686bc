package fsadapter

import (
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"gopkg.in/yaml.v3"
)

// indexMemoryEntryDoc is the on-disk shape of a memories[] entry (§6).
type indexMemoryEntryDoc struct {
	Path          string  `yaml:"path"`
	TokenEstimate int     `yaml:"token_estimate"`
	Summary       *string `yaml:"summary,omitempty"`
	UpdatedAt     *string `yaml:"updated_at,omitempty"`
}

// indexSubcategoryEntryDoc is the on-disk shape of a subcategories[] entry.
type indexSubcategoryEntryDoc struct {
	Path        string  `yaml:"path"`
	MemoryCount int     `yaml:"memory_count"`
	Description *string `yaml:"description,omitempty"`
}

type indexFileDoc struct {
	Memories      []indexMemoryEntryDoc      `yaml:"memories"`
	Subcategories []indexSubcategoryEntryDoc `yaml:"subcategories"`
}

// encodeIndex renders a Category to its on-disk YAML form. Entries are
// sorted by path (Normalize) so round-trips are stable.
func encodeIndex(c category.Category) ([]byte, error) {
	c = c.Normalize()
	doc := indexFileDoc{
		Memories:      make([]indexMemoryEntryDoc, len(c.Memories)),
		Subcategories: make([]indexSubcategoryEntryDoc, len(c.Subcategories)),
	}
	for i, m := range c.Memories {
		var updatedAt *string
		if m.UpdatedAt != nil {
			s := m.UpdatedAt.UTC().Format(time.RFC3339)
			updatedAt = &s
		}
		doc.Memories[i] = indexMemoryEntryDoc{
			Path:          m.Path.String(),
			TokenEstimate: m.TokenEstimate,
			Summary:       m.Summary,
			UpdatedAt:     updatedAt,
		}
	}
	for i, s := range c.Subcategories {
		doc.Subcategories[i] = indexSubcategoryEntryDoc{
			Path:        s.Path.String(),
			MemoryCount: s.MemoryCount,
			Description: s.Description,
		}
	}
	return yaml.Marshal(doc)
}

// decodeIndex parses an on-disk category index.
func decodeIndex(data []byte) (category.Category, error) {
	var doc indexFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return category.Category{}, fmt.Errorf("parse index: %w", err)
	}
	c := category.Category{
		Memories:      make([]category.MemoryEntry, len(doc.Memories)),
		Subcategories: make([]category.SubcategoryEntry, len(doc.Subcategories)),
	}
	for i, m := range doc.Memories {
		mp, err := path.ParseMemoryPath(m.Path)
		if err != nil {
			return category.Category{}, fmt.Errorf("index entry %q: %w", m.Path, err)
		}
		var updatedAt *time.Time
		if m.UpdatedAt != nil {
			t, err := time.Parse(time.RFC3339, *m.UpdatedAt)
			if err != nil {
				return category.Category{}, fmt.Errorf("index entry %q: updated_at: %w", m.Path, err)
			}
			updatedAt = &t
		}
		c.Memories[i] = category.MemoryEntry{
			Path:          mp,
			TokenEstimate: m.TokenEstimate,
			Summary:       m.Summary,
			UpdatedAt:     updatedAt,
		}
	}
	for i, s := range doc.Subcategories {
		cp, err := path.ParseCategoryPath(s.Path)
		if err != nil {
			return category.Category{}, fmt.Errorf("subcategory entry %q: %w", s.Path, err)
		}
		c.Subcategories[i] = category.SubcategoryEntry{
			Path:        cp,
			MemoryCount: s.MemoryCount,
			Description: s.Description,
		}
	}
	return c, nil
}
