// Package adapter is the storage-backend plugin registry: storage
// kinds (currently only "filesystem") register a storage.Factory under
// a name, and the Cortex root client selects one by a store's
// configured kind. Grounded on the teacher's plugin/registry pattern
// (internal/registry/store, internal/registry/cache, ...).
package adapter

import (
	"fmt"

	"github.com/cortexmemory/cortex/internal/storage"
)

// Plugin pairs a storage kind name with the factory that produces
// scoped adapters for it.
type Plugin struct {
	Name    string
	Factory storage.Factory
}

var plugins []Plugin

// Register adds a storage-backend plugin. Called from each backend
// package's init().
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered storage kind names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the factory registered under name.
func Select(name string) (storage.Factory, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Factory, nil
		}
	}
	return nil, fmt.Errorf("unknown store kind %q; valid: %v", name, Names())
}
