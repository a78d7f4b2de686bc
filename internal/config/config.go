// Package config implements Cortex's on-disk configuration format:
// settings + a store registry, read and written as YAML, grounded on
// the pack's config Load/Save pattern (gopkg.in/yaml.v3).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const (
	defaultOutputFormat = "yaml"
	defaultStoreName    = "default"
	// MaxDescriptionLength mirrors category.MaxDescriptionLength; kept
	// independent so config can be validated without importing the
	// domain package.
	MaxDescriptionLength = 500
)

// Settings is the config document's settings section.
type Settings struct {
	OutputFormat string `yaml:"outputFormat"`
	DefaultStore string `yaml:"defaultStore"`
}

// CategoryHierarchy is a recursive map of category segment to its
// declared description and children, used by subcategories/strict mode
// enforcement.
type CategoryHierarchy map[string]CategoryNode

// CategoryNode is one entry of a CategoryHierarchy.
type CategoryNode struct {
	Description   *string           `yaml:"description,omitempty"`
	Subcategories CategoryHierarchy `yaml:"subcategories,omitempty"`
}

// StoreDefinition describes one configured store.
type StoreDefinition struct {
	Kind         string            `yaml:"kind"`
	Properties   map[string]any    `yaml:"properties"`
	Description  *string           `yaml:"description,omitempty"`
	CategoryMode string            `yaml:"categoryMode"`
	Categories   CategoryHierarchy `yaml:"categories,omitempty"`
}

// Config is the full merged configuration document.
type Config struct {
	Settings Settings                   `yaml:"settings"`
	Stores   map[string]StoreDefinition `yaml:"stores"`
}

// Error is a typed config failure, tagged with the offending store or
// field where applicable.
type Error struct {
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Default returns a configuration with no stores and the documented
// defaults for settings.
func Default() *Config {
	return &Config{
		Settings: Settings{
			OutputFormat: defaultOutputFormat,
			DefaultStore: defaultStoreName,
		},
		Stores: map[string]StoreDefinition{},
	}
}

// Parse decodes and validates raw YAML bytes into a Config.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Message: "parse config", Cause: err}
	}
	if cfg.Settings.OutputFormat == "" {
		cfg.Settings.OutputFormat = defaultOutputFormat
	}
	if cfg.Settings.DefaultStore == "" {
		cfg.Settings.DefaultStore = defaultStoreName
	}
	if cfg.Stores == nil {
		cfg.Stores = map[string]StoreDefinition{}
	}
	for name, def := range cfg.Stores {
		if def.CategoryMode == "" {
			def.CategoryMode = "free"
			cfg.Stores[name] = def
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Serialize renders cfg back to its canonical YAML form.
func Serialize(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, &Error{Message: "serialize config", Cause: err}
	}
	return data, nil
}

// Validate enforces §4.7's structural rules.
func Validate(cfg *Config) error {
	switch cfg.Settings.OutputFormat {
	case "yaml", "json", "toon":
	default:
		return &Error{Field: "settings.outputFormat", Message: "must be one of yaml, json, toon"}
	}
	for name, def := range cfg.Stores {
		if !slugRe.MatchString(name) {
			return &Error{Field: "stores." + name, Message: "store name must match ^[a-z0-9]+(-[a-z0-9]+)*$"}
		}
		if def.Kind == "filesystem" {
			p, _ := def.Properties["path"].(string)
			if !filepath.IsAbs(p) {
				return &Error{Field: "stores." + name + ".properties.path", Message: "filesystem store path must be absolute"}
			}
		}
		switch def.CategoryMode {
		case "free", "subcategories", "strict":
		default:
			return &Error{Field: "stores." + name + ".categoryMode", Message: "must be one of free, subcategories, strict"}
		}
		if def.Description != nil && len(*def.Description) > MaxDescriptionLength {
			return &Error{Field: "stores." + name + ".description", Message: "exceeds maximum length"}
		}
		if err := validateHierarchy("stores."+name+".categories", def.Categories); err != nil {
			return err
		}
	}
	return nil
}

func validateHierarchy(fieldPrefix string, h CategoryHierarchy) error {
	for segment, node := range h {
		if !slugRe.MatchString(segment) {
			return &Error{Field: fieldPrefix + "." + segment, Message: "category segment must match ^[a-z0-9]+(-[a-z0-9]+)*$"}
		}
		if node.Description != nil && len(*node.Description) > MaxDescriptionLength {
			return &Error{Field: fieldPrefix + "." + segment + ".description", Message: "exceeds maximum length"}
		}
		if err := validateHierarchy(fieldPrefix+"."+segment+".subcategories", node.Subcategories); err != nil {
			return err
		}
	}
	return nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Message: "read config file", Cause: err}
	}
	return Parse(data)
}

// Exists reports whether a config file is already present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save serializes cfg and writes it to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{Message: "create config directory", Cause: err}
	}
	data, err := Serialize(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

const (
	envConfigDir = "CORTEX_CONFIG_DIR"
	configFile   = "config.yaml"
)

// ResolvePath determines the config file location per §4.7's
// precedence: an explicit override, then the CORTEX_CONFIG_DIR
// environment variable, then the standard per-user config directory.
// Leading "~" is expanded against the user's home directory.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return expandTilde(explicit)
	}
	if dir := os.Getenv(envConfigDir); dir != "" {
		expanded, err := expandTilde(dir)
		if err != nil {
			return "", err
		}
		return filepath.Join(expanded, configFile), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", &Error{Message: "resolve user config directory", Cause: err}
	}
	return filepath.Join(base, "cortex", configFile), nil
}

func expandTilde(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &Error{Message: "resolve home directory", Cause: err}
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}
