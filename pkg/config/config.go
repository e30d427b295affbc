// Package config loads pyreach configuration from TOML, YAML, or JSON.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for pyreach.
type Config struct {
	// Target interpreter settings driving reachability decisions
	Python PythonConfig `koanf:"python"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// PythonConfig describes the target platform and version the analysis
// assumes. AlwaysTrue and AlwaysFalse force the truth of named guards,
// the way type checkers let users pin feature flags.
type PythonConfig struct {
	Platform    string   `koanf:"platform"`
	Version     string   `koanf:"version"`
	AlwaysTrue  []string `koanf:"always_true"`
	AlwaysFalse []string `koanf:"always_false"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults. The target
// platform follows the host the way CPython reports sys.platform.
func DefaultConfig() *Config {
	return &Config{
		Python: PythonConfig{
			Platform: HostPlatform(),
			Version:  "3.12",
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"test_*.py",
				"*_test.py",
			},
			Dirs: []string{
				".git",
				".pyreach",
				"__pycache__",
				".venv",
				"venv",
				"site-packages",
				"node_modules",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".pyreach/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// HostPlatform maps the host OS to the matching sys.platform value.
func HostPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "win32"
	case "darwin":
		return "darwin"
	default:
		return "linux"
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns
// defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"pyreach.toml",
		"pyreach.yaml",
		"pyreach.yml",
		"pyreach.json",
		".pyreach.toml",
		".pyreach.yaml",
		".pyreach.yml",
		".pyreach.json",
	}
	searchDirs := []string{".", ".pyreach"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}
