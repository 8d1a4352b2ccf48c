// Package config loads hoist settings from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/hoist/pkg/similarity"
)

// Config holds all configuration for hoist.
type Config struct {
	Similarity SimilarityConfig `koanf:"similarity" toml:"similarity"`
	Clustering ClusteringConfig `koanf:"clustering" toml:"clustering"`
	Analysis   AnalysisConfig   `koanf:"analysis" toml:"analysis"`
	Exclude    ExcludeConfig    `koanf:"exclude" toml:"exclude"`
	Cache      CacheConfig      `koanf:"cache" toml:"cache"`
	Output     OutputConfig     `koanf:"output" toml:"output"`
	Generate   GenerateConfig   `koanf:"generate" toml:"generate"`
}

// SimilarityConfig controls when two methods are considered near-duplicates.
type SimilarityConfig struct {
	// Threshold seeds NameThreshold and BodyThreshold when they are not set.
	Threshold            float64 `koanf:"threshold" toml:"threshold"`
	NameThreshold        float64 `koanf:"name_threshold" toml:"name_threshold"`
	BodyThreshold        float64 `koanf:"body_threshold" toml:"body_threshold"`
	NameWindow           int     `koanf:"name_window" toml:"name_window"`
	BodyWindow           string  `koanf:"body_window" toml:"body_window"` // "auto" or a positive integer
	NormalizeDescriptors bool    `koanf:"normalize_descriptors" toml:"normalize_descriptors"`
}

// ClusteringConfig controls how flagged pairs are grouped.
type ClusteringConfig struct {
	Mode string `koanf:"mode" toml:"mode"` // first_seen, connected
}

// AnalysisConfig controls file processing.
type AnalysisConfig struct {
	Workers     int      `koanf:"workers" toml:"workers"`             // 0 = NumCPU
	MaxFileSize int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = no limit
	Languages   []string `koanf:"languages" toml:"languages"`         // empty = all supported
}

// ExcludeConfig defines what paths are skipped.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"` // doublestar globs
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls the parse cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// GenerateConfig controls skeleton source generation.
type GenerateConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"` // empty = "generated" beside each source file
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Similarity: SimilarityConfig{
			Threshold:            0.8,
			NameThreshold:        0.8,
			BodyThreshold:        0.8,
			NameWindow:           3,
			BodyWindow:           "auto",
			NormalizeDescriptors: true,
		},
		Clustering: ClusteringConfig{
			Mode: "first_seen",
		},
		Analysis: AnalysisConfig{
			MaxFileSize: 1 << 20,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"**/*.min.js",
				"**/*.d.ts",
				"**/*.Designer.cs",
				"**/*.g.cs",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".hoist",
				"bin",
				"obj",
				"dist",
				"build",
				"generated",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".hoist/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// BodyWindowSize resolves BodyWindow. It returns 0 for "auto".
func (s SimilarityConfig) BodyWindowSize() (int, error) {
	v := strings.TrimSpace(strings.ToLower(s.BodyWindow))
	if v == "" || v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, &similarity.ConfigurationError{
			Field:  "similarity.body_window",
			Value:  s.BodyWindow,
			Reason: `must be "auto" or an integer >= 1`,
		}
	}
	return n, nil
}

var validFormats = []string{"text", "json", "markdown", "toon"}

var validModes = []string{"first_seen", "connected"}

// Validate reports the first invalid setting as a *similarity.ConfigurationError.
func (c *Config) Validate() error {
	s := c.Similarity
	for _, check := range []struct {
		field string
		value float64
	}{
		{"similarity.threshold", s.Threshold},
		{"similarity.name_threshold", s.NameThreshold},
		{"similarity.body_threshold", s.BodyThreshold},
	} {
		if err := similarity.ValidateThreshold(check.field, check.value); err != nil {
			return err
		}
	}
	if err := similarity.ValidateWindow("similarity.name_window", s.NameWindow); err != nil {
		return err
	}
	if _, err := s.BodyWindowSize(); err != nil {
		return err
	}
	if !contains(validModes, c.Clustering.Mode) {
		return &similarity.ConfigurationError{
			Field:  "clustering.mode",
			Value:  c.Clustering.Mode,
			Reason: "must be one of " + strings.Join(validModes, ", "),
		}
	}
	if !contains(validFormats, c.Output.Format) {
		return &similarity.ConfigurationError{
			Field:  "output.format",
			Value:  c.Output.Format,
			Reason: "must be one of " + strings.Join(validFormats, ", "),
		}
	}
	if c.Analysis.Workers < 0 {
		return &similarity.ConfigurationError{Field: "analysis.workers", Value: c.Analysis.Workers, Reason: "must be >= 0"}
	}
	for _, p := range c.Exclude.Patterns {
		if !doublestar.ValidatePattern(p) {
			return &similarity.ConfigurationError{Field: "exclude.patterns", Value: p, Reason: "invalid glob"}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// parserFor picks a koanf parser from the file extension, defaulting to TOML.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return k, nil
}

// Load loads and validates configuration from a file.
func Load(path string) (*Config, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	// A bare threshold applies to whichever of the two specific ones is unset.
	if k.Exists("similarity.threshold") {
		if !k.Exists("similarity.name_threshold") {
			cfg.Similarity.NameThreshold = cfg.Similarity.Threshold
		}
		if !k.Exists("similarity.body_threshold") {
			cfg.Similarity.BodyThreshold = cfg.Similarity.Threshold
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configNames are searched in order inside each search directory.
var configNames = []string{
	"hoist.toml",
	"hoist.yaml",
	"hoist.yml",
	"hoist.json",
	".hoist.toml",
	".hoist.yaml",
	".hoist.yml",
	".hoist.json",
}

// Find returns the first config file found in dir or dir/.hoist, or "".
func Find(dir string) string {
	for _, d := range []string{dir, filepath.Join(dir, ".hoist")} {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	Source string // empty when defaults were used
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDir changes the directory searched for config files.
func WithSearchDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// ErrNotFound is returned when an explicit config path does not exist.
var ErrNotFound = errors.New("config file not found")

// LoadConfig loads an explicit file, or the first file found by Find, or
// falls back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	} else {
		path = Find(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// ShouldExclude checks if a slash- or OS-separated path relative to the
// analysis root should be skipped.
func (c *Config) ShouldExclude(path string) bool {
	slash := filepath.ToSlash(path)

	for _, part := range strings.Split(slash, "/") {
		if contains(c.Exclude.Dirs, part) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if ok, _ := doublestar.Match(pattern, slash); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}
