// Package render builds the output-format-agnostic map representation
// of a memory.Memory shared by the CLI (internal/cmd/memory) and the
// tool server (internal/toolserver), so both surfaces describe a
// memory identically regardless of transport.
package render

import "github.com/cortexmemory/cortex/internal/domain/memory"

// Memory flattens m into a map suitable for YAML/JSON encoding.
func Memory(m memory.Memory) map[string]any {
	meta := m.Metadata()
	out := map[string]any{
		"path":      m.Path().String(),
		"content":   m.Content(),
		"createdAt": meta.CreatedAt,
		"updatedAt": meta.UpdatedAt,
		"tags":      meta.Tags,
		"source":    meta.Source,
		"citations": meta.Citations,
	}
	if meta.ExpiresAt != nil {
		out["expiresAt"] = *meta.ExpiresAt
	}
	return out
}
