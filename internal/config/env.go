package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "TRAZO_"

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

func str(f func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error { *f(c) = v; return nil }
}

func integer(f func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*f(c) = n
		return nil
	}
}

func float(f func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*f(c) = n
		return nil
	}
}

func boolean(f func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*f(c) = b
		return nil
	}
}

func duration(f func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*f(c) = d
		return nil
	}
}

var envVars = []envVar{
	{"STORE_BACKEND", str(func(c *Config) *string { return &c.Store.Backend })},
	{"STORE_DIR", str(func(c *Config) *string { return &c.Store.Dir })},
	{"STORE_SQLITE_PATH", str(func(c *Config) *string { return &c.Store.SQLitePath })},
	{"STORE_REDIS_ADDR", str(func(c *Config) *string { return &c.Store.RedisAddr })},
	{"STORE_REDIS_PASSWORD", str(func(c *Config) *string { return &c.Store.RedisPassword })},
	{"STORE_REDIS_DB", integer(func(c *Config) *int { return &c.Store.RedisDB })},
	{"STORE_MONGO_URI", str(func(c *Config) *string { return &c.Store.MongoURI })},
	{"STORE_MONGO_DATABASE", str(func(c *Config) *string { return &c.Store.MongoDatabase })},
	{"STORE_COMPRESS", boolean(func(c *Config) *bool { return &c.Store.Compress })},
	{"STORE_DEBOUNCE", duration(func(c *Config) *time.Duration { return &c.Store.Debounce })},
	{"CACHE_BACKEND", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"CACHE_REDIS_ADDR", str(func(c *Config) *string { return &c.Cache.RedisAddr })},
	{"ANALYZER_EXPANSION_THRESHOLD", integer(func(c *Config) *int { return &c.Analyzer.ExpansionThreshold })},
	{"ANALYZER_MAX_ITEMS", integer(func(c *Config) *int { return &c.Analyzer.MaxItems })},
	{"ANALYZER_MAX_LABEL_RUNES", integer(func(c *Config) *int { return &c.Analyzer.MaxLabelRunes })},
	{"ANALYZER_DISABLE_EXPANSION", boolean(func(c *Config) *bool { return &c.Analyzer.DisableExpansion })},
	{"LAYOUT_WIDTH", float(func(c *Config) *float64 { return &c.Layout.Width })},
	{"LAYOUT_HEIGHT", float(func(c *Config) *float64 { return &c.Layout.Height })},
	{"PIPELINE_STAGE_BUDGET", duration(func(c *Config) *time.Duration { return &c.Pipeline.StageBudget })},
	{"SERVER_ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
}

// applyEnv overrides fields from TRAZO_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.set(c, v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, ev.name, err)
		}
	}
	return nil
}
