// Package cortex is the composition root (§4.8): it owns a Config and
// an adapter-factory, and for each named store produces a scoped
// storage adapter that memops/catops operations run against. Grounded
// on the teacher's config.WithContext/FromContext carrying pattern,
// generalized from a single process-wide backend to a per-store
// factory lookup (internal/registry/adapter).
package cortex

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/cortexmemory/cortex/internal/catops"
	"github.com/cortexmemory/cortex/internal/catops/policy"
	"github.com/cortexmemory/cortex/internal/config"
	cpath "github.com/cortexmemory/cortex/internal/domain/path"
	registry "github.com/cortexmemory/cortex/internal/registry/adapter"
	"github.com/cortexmemory/cortex/internal/storage"
)

// Error reports a store lookup or config failure at the root-client level.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

const (
	ErrStoreNotFound = "STORE_NOT_FOUND"
	ErrConfig        = "CONFIG_ERROR"
)

// AdapterFactory resolves a storage kind name to the storage.Factory
// that produces scoped adapters for it. Production wires registry.Select
// (the filesystem backend self-registers via init()); tests inject a
// function returning a fixed in-memory factory without touching the
// registry.
type AdapterFactory func(kind string) (storage.Factory, error)

// Cortex is the root client: an immutable Config plus an adapter-factory.
type Cortex struct {
	cfg      *config.Config
	factory  AdapterFactory
	policies *policy.Engine
}

// Options constructs a Cortex without reading any file, for tests and
// embedders that supply their own settings/registry/adapter-factory.
type Options struct {
	Config   *config.Config
	Factory  AdapterFactory
	Policies *policy.Engine
}

// Init builds a Cortex directly from in-memory options (§4.8's "init").
func Init(ctx context.Context, opts Options) (*Cortex, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	factory := opts.Factory
	if factory == nil {
		factory = registry.Select
	}
	policies := opts.Policies
	if policies == nil {
		var err error
		policies, err = policy.NewEngine(ctx, "")
		if err != nil {
			return nil, &Error{Code: ErrConfig, Message: "load default category policy", Cause: err}
		}
	}
	return &Cortex{cfg: cfg, factory: factory, policies: policies}, nil
}

// FromConfig reads and parses the merged config from configDir (or the
// resolved default location if configDir is empty) and wires the
// production filesystem adapter factory (§4.8's "fromConfig").
func FromConfig(ctx context.Context, configDir string) (*Cortex, error) {
	loc, err := configLocation(configDir)
	if err != nil {
		return nil, &Error{Code: ErrConfig, Message: "resolve config location", Cause: err}
	}
	cfg, err := config.Load(loc)
	if err != nil {
		return nil, &Error{Code: ErrConfig, Message: "load config from " + loc, Cause: err}
	}
	policies, err := policy.NewEngine(ctx, filepath.Dir(loc))
	if err != nil {
		return nil, &Error{Code: ErrConfig, Message: "load category policy", Cause: err}
	}
	return &Cortex{cfg: cfg, factory: registry.Select, policies: policies}, nil
}

// configLocation resolves the config file inside configDir, or the
// default location chosen by config.ResolvePath when configDir is empty.
func configLocation(configDir string) (string, error) {
	if configDir == "" {
		return config.ResolvePath("")
	}
	return config.ResolvePath(filepath.Join(configDir, "config.yaml"))
}

// Settings returns the resolved CortexSettings.
func (c *Cortex) Settings() config.Settings { return c.cfg.Settings }

// Registry returns a read-only view of the configured store registry.
func (c *Cortex) Registry() map[string]config.StoreDefinition {
	out := make(map[string]config.StoreDefinition, len(c.cfg.Stores))
	for k, v := range c.cfg.Stores {
		out[k] = v
	}
	return out
}

// GetStore resolves name's StoreDefinition and invokes the adapter
// factory for its kind, returning a scoped adapter bound to that store.
func (c *Cortex) GetStore(ctx context.Context, name string) (storage.ScopedAdapter, error) {
	def, ok := c.cfg.Stores[name]
	if !ok {
		return nil, &Error{Code: ErrStoreNotFound, Message: "store " + name + " is not configured"}
	}
	factory, err := c.factory(def.Kind)
	if err != nil {
		return nil, &Error{Code: ErrStoreNotFound, Message: "resolve storage kind " + def.Kind, Cause: err}
	}
	adapter, err := factory(ctx, def.Properties)
	if err != nil {
		return nil, &Error{Code: ErrStoreNotFound, Message: "initialize store " + name, Cause: err}
	}
	return adapter, nil
}

// ModeContext builds the catops.ModeContext for a configured store from
// its StoreDefinition, flattening the declared CategoryHierarchy into
// allowed roots/paths/protected-paths.
func (c *Cortex) ModeContext(name string) (*catops.ModeContext, error) {
	def, ok := c.cfg.Stores[name]
	if !ok {
		return nil, &Error{Code: ErrStoreNotFound, Message: "store " + name + " is not configured"}
	}
	mode := catops.Mode(def.CategoryMode)
	if mode == "" {
		mode = catops.ModeFree
	}
	mc := &catops.ModeContext{Mode: mode}
	flattenHierarchy(def.Categories, "", mc)
	return mc, nil
}

// Policies returns the shared category-mode policy engine.
func (c *Cortex) Policies() *policy.Engine { return c.policies }

// Initialize writes the default config to disk if absent (idempotent).
func (c *Cortex) Initialize(ctx context.Context, configDir string) error {
	loc, err := configLocation(configDir)
	if err != nil {
		return &Error{Code: ErrConfig, Message: "resolve config location", Cause: err}
	}
	if config.Exists(loc) {
		log.Debug("config already present, skipping init", "path", loc)
		return nil
	}
	if err := config.Save(loc, c.cfg); err != nil {
		return &Error{Code: ErrConfig, Message: "write default config to " + loc, Cause: err}
	}
	log.Info("wrote default config", "path", loc)

	for name, def := range c.cfg.Stores {
		if len(def.Categories) == 0 {
			continue
		}
		if err := c.scaffoldHierarchy(ctx, name, def.Categories); err != nil {
			return &Error{Code: ErrConfig, Message: "scaffold configured categories for store " + name, Cause: err}
		}
	}
	return nil
}

// scaffoldHierarchy ensures every category declared in a store's
// CategoryHierarchy exists on disk with its configured description
// (§C.4's init-time scaffolding).
func (c *Cortex) scaffoldHierarchy(ctx context.Context, storeName string, h config.CategoryHierarchy) error {
	adapter, err := c.GetStore(ctx, storeName)
	if err != nil {
		return err
	}
	var walk func(prefix string, h config.CategoryHierarchy) error
	walk = func(prefix string, h config.CategoryHierarchy) error {
		for segment, node := range h {
			p := segment
			if prefix != "" {
				p = prefix + "/" + segment
			}
			cp, err := cpath.ParseCategoryPath(p)
			if err != nil {
				return err
			}
			if err := adapter.Categories().Ensure(ctx, cp); err != nil {
				return err
			}
			if node.Description != nil {
				if err := adapter.Categories().SetDescription(ctx, cp, node.Description); err != nil {
					return err
				}
			}
			if err := walk(p, node.Subcategories); err != nil {
				return err
			}
		}
		return nil
	}
	return walk("", h)
}

func flattenHierarchy(h config.CategoryHierarchy, prefix string, mc *catops.ModeContext) {
	for segment, node := range h {
		p := segment
		if prefix != "" {
			p = prefix + "/" + segment
		}
		if prefix == "" {
			mc.AllowedRoots = append(mc.AllowedRoots, segment)
		}
		mc.AllowedPaths = append(mc.AllowedPaths, p)
		mc.ProtectedPaths = append(mc.ProtectedPaths, p)
		if node.Subcategories != nil {
			flattenHierarchy(node.Subcategories, p, mc)
		}
	}
}
