// Package config loads trazo's configuration.
//
// Settings come from, in increasing priority:
//
//  1. built-in defaults ([Default])
//  2. a config file: $XDG_CONFIG_HOME/trazo/config.toml, or config.yaml
//     when no TOML file exists
//  3. TRAZO_* environment variables (TRAZO_STORE_BACKEND, TRAZO_SERVER_ADDR, ...)
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/trazo/pkg/analyzer"
	"github.com/matzehuels/trazo/pkg/layout"
	"github.com/matzehuels/trazo/pkg/pipeline"
	"github.com/matzehuels/trazo/pkg/store"
)

// AppName names the config, data and cache directories.
const AppName = "trazo"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Config is the complete configuration.
type Config struct {
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Cache    CacheConfig    `toml:"cache" yaml:"cache"`
	Analyzer AnalyzerConfig `toml:"analyzer" yaml:"analyzer"`
	Layout   LayoutConfig   `toml:"layout" yaml:"layout"`
	Pipeline PipelineConfig `toml:"pipeline" yaml:"pipeline"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
}

// StoreConfig selects where diagrams are persisted.
type StoreConfig struct {
	Backend       string        `toml:"backend" yaml:"backend" validate:"oneof=memory file sqlite redis mongo"`
	Dir           string        `toml:"dir" yaml:"dir" validate:"required_if=Backend file"`
	SQLitePath    string        `toml:"sqlite_path" yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db" validate:"gte=0"`
	MongoURI      string        `toml:"mongo_uri" yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string        `toml:"mongo_database" yaml:"mongo_database" validate:"required_if=Backend mongo"`
	Compress      bool          `toml:"compress" yaml:"compress"`
	Debounce      time.Duration `toml:"debounce" yaml:"debounce" validate:"gte=0"`
}

// CacheConfig selects the outline/layout/artifact cache.
type CacheConfig struct {
	Backend   string `toml:"backend" yaml:"backend" validate:"oneof=none file redis"`
	Dir       string `toml:"dir" yaml:"dir" validate:"required_if=Backend file"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
}

// AnalyzerConfig tunes the semantic analyzer.
type AnalyzerConfig struct {
	ExpansionThreshold int  `toml:"expansion_threshold" yaml:"expansion_threshold" validate:"gte=1,lte=64"`
	MaxItems           int  `toml:"max_items" yaml:"max_items" validate:"gte=1,lte=200"`
	MaxLabelRunes      int  `toml:"max_label_runes" yaml:"max_label_runes" validate:"gte=8,lte=500"`
	DisableExpansion   bool `toml:"disable_expansion" yaml:"disable_expansion"`
}

// LayoutConfig sets the canvas size used by the layout engine.
type LayoutConfig struct {
	Width  float64 `toml:"width" yaml:"width" validate:"gt=0"`
	Height float64 `toml:"height" yaml:"height" validate:"gt=0"`
}

// PipelineConfig tunes the generation pipeline.
type PipelineConfig struct {
	StageBudget time.Duration `toml:"stage_budget" yaml:"stage_budget" validate:"gt=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:  BackendFile,
			Dir:      filepath.Join(DataDir(), "workspaces"),
			Debounce: store.DefaultDebounce,
			Compress: true,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Dir:     CacheDir(),
		},
		Analyzer: AnalyzerConfig{
			ExpansionThreshold: analyzer.DefaultExpansionThreshold,
			MaxItems:           analyzer.DefaultMaxItems,
			MaxLabelRunes:      analyzer.DefaultMaxLabelRunes,
		},
		Layout: LayoutConfig{
			Width:  layout.DefaultWidth,
			Height: layout.DefaultHeight,
		},
		Pipeline: PipelineConfig{StageBudget: pipeline.DefaultStageBudget},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the configuration. An empty path searches the default
// locations; a missing default file is not an error. The result is validated.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path == "" {
		path = find()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// find returns the first existing default config file, or "".
func find() string {
	dir := ConfigDir()
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file %s (want .toml or .yaml)", path)
	}
	return nil
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New()

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	return formatValidationError(validate.Struct(c))
}

// formatValidationError turns the first validator error into a readable one.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		switch e.Tag() {
		case "required", "required_if":
			return fmt.Errorf("config %s: field is required", field)
		case "oneof":
			return fmt.Errorf("config %s: must be one of [%s], got %q", field, e.Param(), e.Value())
		case "gt", "gte":
			return fmt.Errorf("config %s: must be at least %s", field, e.Param())
		case "lte":
			return fmt.Errorf("config %s: must not exceed %s", field, e.Param())
		default:
			return fmt.Errorf("config %s: validation failed (%s)", field, e.Tag())
		}
	}
	return nil
}

// =============================================================================
// Conversions
// =============================================================================

// AnalyzerOptions returns the analyzer options.
func (c Config) AnalyzerOptions() analyzer.Options {
	return analyzer.Options{
		ExpansionThreshold: c.Analyzer.ExpansionThreshold,
		MaxItems:           c.Analyzer.MaxItems,
		MaxLabelRunes:      c.Analyzer.MaxLabelRunes,
		DisableExpansion:   c.Analyzer.DisableExpansion,
	}
}

// LayoutOptions returns the layout options.
func (c Config) LayoutOptions() layout.Options {
	opts := layout.Options{Width: c.Layout.Width, Height: c.Layout.Height}
	opts.SetDefaults()
	return opts
}

// StoreOptions returns the diagram store options.
func (c Config) StoreOptions() store.Options {
	return store.Options{Debounce: c.Store.Debounce, Compress: c.Store.Compress}
}

// PipelineOptions returns the pipeline options, without cache or emitter.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		AnalyzerOptions: c.AnalyzerOptions(),
		Layout:          c.LayoutOptions(),
		StageBudget:     c.Pipeline.StageBudget,
	}
}

// =============================================================================
// Paths
// =============================================================================

// ConfigDir returns $XDG_CONFIG_HOME/trazo, defaulting to ~/.config/trazo.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/trazo, defaulting to ~/.local/share/trazo.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir returns $XDG_CACHE_HOME/trazo, defaulting to ~/.cache/trazo.
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback, AppName)
}
