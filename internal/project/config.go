package project

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the parsed pysema.toml. All sections are optional; the zero
// config falls back to the defaults below.
type Config struct {
	Index   IndexConfig         `toml:"index"`
	Members map[string][]string `toml:"members"`
}

// IndexConfig tunes the index build and its caches.
type IndexConfig struct {
	// Jobs caps the parallel file workers; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// MaxDiagnostics caps the diagnostics collected per file.
	MaxDiagnostics int `toml:"max_diagnostics"`
	// IndexCacheSize caps how many file revisions stay indexed in memory.
	IndexCacheSize int `toml:"index_cache_size"`
	// ScopeCacheSize caps the cross-revision scope sharing cache.
	ScopeCacheSize int `toml:"scope_cache_size"`
	// Extensions lists the file suffixes treated as Python sources.
	Extensions []string `toml:"extensions"`
	// Disabled lists diagnostic code names (e.g. "SEM3013") to suppress.
	Disabled []string `toml:"disabled"`
}

// DefaultConfig returns the configuration used without a manifest.
func DefaultConfig() Config {
	return Config{
		Index: IndexConfig{
			MaxDiagnostics: 256,
			IndexCacheSize: 512,
			ScopeCacheSize: 8192,
			Extensions:     []string{".py", ".pyi"},
		},
	}
}

// LoadConfig parses a pysema.toml and fills unset values with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if raw.Index.Jobs > 0 {
		cfg.Index.Jobs = raw.Index.Jobs
	}
	if raw.Index.MaxDiagnostics > 0 {
		cfg.Index.MaxDiagnostics = raw.Index.MaxDiagnostics
	}
	if raw.Index.IndexCacheSize > 0 {
		cfg.Index.IndexCacheSize = raw.Index.IndexCacheSize
	}
	if raw.Index.ScopeCacheSize > 0 {
		cfg.Index.ScopeCacheSize = raw.Index.ScopeCacheSize
	}
	if len(raw.Index.Extensions) > 0 {
		cfg.Index.Extensions = raw.Index.Extensions
	}
	cfg.Index.Disabled = raw.Index.Disabled
	cfg.Members = raw.Members
	return cfg, nil
}

// LoadProjectConfig resolves the manifest upward from startDir. Without a
// manifest it returns the defaults and ok=false.
func LoadProjectConfig(startDir string) (Config, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return DefaultConfig(), false, err
	}
	if !ok {
		return DefaultConfig(), false, nil
	}
	cfg, err := LoadConfig(path)
	return cfg, true, err
}

// IsDisabled reports whether a diagnostic code name is suppressed.
func (c *Config) IsDisabled(code string) bool {
	for _, d := range c.Index.Disabled {
		if strings.EqualFold(d, code) {
			return true
		}
	}
	return false
}
