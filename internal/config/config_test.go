package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	cfg := Default()
	require.Equal(t, "yaml", cfg.Settings.OutputFormat)
	require.Equal(t, "default", cfg.Settings.DefaultStore)
	require.Empty(t, cfg.Stores)
}

func TestParseAppliesDefaultsForMissingFields(t *testing.T) {
	cfg, err := Parse([]byte(`
stores:
  default:
    kind: filesystem
    properties:
      path: /var/lib/cortex
`))
	require.NoError(t, err)
	require.Equal(t, "yaml", cfg.Settings.OutputFormat)
	require.Equal(t, "free", cfg.Stores["default"].CategoryMode)
}

func TestParseRejectsRelativeFilesystemPath(t *testing.T) {
	_, err := Parse([]byte(`
stores:
  default:
    kind: filesystem
    properties:
      path: relative/dir
`))
	require.Error(t, err)
}

func TestParseRejectsInvalidCategoryMode(t *testing.T) {
	_, err := Parse([]byte(`
stores:
  default:
    kind: filesystem
    categoryMode: chaotic
    properties:
      path: /var/lib/cortex
`))
	require.Error(t, err)
}

func TestParseRejectsInvalidStoreName(t *testing.T) {
	_, err := Parse([]byte(`
stores:
  Default_Store:
    kind: filesystem
    properties:
      path: /var/lib/cortex
`))
	require.Error(t, err)
}

func TestParseRejectsOverlongDescription(t *testing.T) {
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	yamlStr := "stores:\n  default:\n    kind: filesystem\n    description: \"" + string(long) + "\"\n    properties:\n      path: /var/lib/cortex\n"
	_, err := Parse([]byte(yamlStr))
	require.Error(t, err)
}

func TestSerializeParseRoundTrip(t *testing.T) {
	desc := "team workspace"
	cfg := &Config{
		Settings: Settings{OutputFormat: "json", DefaultStore: "work"},
		Stores: map[string]StoreDefinition{
			"work": {
				Kind:         "filesystem",
				Properties:   map[string]any{"path": "/var/lib/cortex/work"},
				CategoryMode: "subcategories",
				Categories: CategoryHierarchy{
					"projects": CategoryNode{Description: &desc},
				},
			},
		},
	}
	data, err := Serialize(cfg)
	require.NoError(t, err)

	reparsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, cfg.Settings, reparsed.Settings)
	require.Equal(t, cfg.Stores["work"].CategoryMode, reparsed.Stores["work"].CategoryMode)

	roundTripped, err := Serialize(reparsed)
	require.NoError(t, err)
	reparsedAgain, err := Parse(roundTripped)
	require.NoError(t, err)
	require.Equal(t, reparsed, reparsedAgain)
}

func TestResolvePathPrecedence(t *testing.T) {
	p, err := ResolvePath("/explicit/path.yaml")
	require.NoError(t, err)
	require.Equal(t, "/explicit/path.yaml", p)

	t.Setenv("CORTEX_CONFIG_DIR", "/env/dir")
	p, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/env/dir/config.yaml", p)
}

func TestResolvePathExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p, err := ResolvePath("~/custom-config.yaml")
	require.NoError(t, err)
	require.Equal(t, home+"/custom-config.yaml", p)
}
