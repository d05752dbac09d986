// Package config loads atrisk's YAML configuration, applies ATRISK_*
// environment overrides and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/coach"
	"github.com/abhisek/atrisk/internal/dataset"
	"github.com/abhisek/atrisk/internal/encoder"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/llm"
)

const (
	DefaultModel      = classifier.VariantForest
	DefaultServerAddr = ":8080"
	DefaultCacheTTL   = 24 * time.Hour
	DefaultWorkers    = 4
)

// StoreConfig selects the event database. DSN is a sqlite path or a
// postgres:// URL; empty means the default data path.
type StoreConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// ModelsConfig selects the default classifier and optional artifact files
// that replace the embedded ones.
type ModelsConfig struct {
	Default   string            `yaml:"default,omitempty" validate:"required,oneof=random-forest logistic-regression rf lr"`
	Artifacts map[string]string `yaml:"artifacts,omitempty" validate:"dive,keys,oneof=random-forest logistic-regression,endkeys,required"`
}

// StatConfig is the mean and population standard deviation of one field.
type StatConfig struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std" validate:"gt=0"`
}

// ReferenceConfig overrides the standardization statistics. Stats and CSV
// are mutually exclusive; with neither the built-in reference is used.
type ReferenceConfig struct {
	Stats map[string]StatConfig `yaml:"stats,omitempty" validate:"excluded_with=CSV,dive"`
	CSV   string                `yaml:"csv,omitempty"`
}

// CacheConfig enables the prediction cache. An empty RedisURL with Enabled
// selects the in-process cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	RedisURL string        `yaml:"redis_url,omitempty" validate:"omitempty,url"`
	TTL      time.Duration `yaml:"ttl,omitempty" validate:"gte=0"`
}

// CoachConfig configures the optional coaching note.
type CoachConfig struct {
	LLM        llm.Config   `yaml:"llm"`
	Generation coach.Config `yaml:"generation"`
}

// ServerConfig configures `atrisk serve`.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty" validate:"required"`
}

// BatchConfig configures `atrisk batch`.
type BatchConfig struct {
	Workers int `yaml:"workers,omitempty" validate:"gte=1,lte=256"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// Config is the top-level configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store,omitempty"`
	Models    ModelsConfig    `yaml:"models,omitempty"`
	Reference ReferenceConfig `yaml:"reference,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	Coach     CoachConfig     `yaml:"coach,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Batch     BatchConfig     `yaml:"batch,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with every default populated.
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{Default: string(DefaultModel)},
		Cache:  CacheConfig{TTL: DefaultCacheTTL},
		Coach: CoachConfig{
			LLM:        llm.DefaultConfig(),
			Generation: coach.DefaultConfig(),
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
		Batch:  BatchConfig{Workers: DefaultWorkers},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Path resolves the configuration file: flag, then ATRISK_CONFIG, then
// $XDG_CONFIG_HOME/atrisk/config.yaml (~/.config when unset). explicit is
// false for the last fallback, whose absence is not an error.
func Path(flag string, getenv func(string) string) (path string, explicit bool) {
	if flag != "" {
		return flag, true
	}
	if p := getenv("ATRISK_CONFIG"); p != "" {
		return p, true
	}
	dir := getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "atrisk", "config.yaml"), false
}

// Load reads path over the defaults, applies environment overrides and
// validates. A missing file is an error only when explicit is set.
func Load(path string, explicit bool, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := Decode(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	cfg.ApplyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals YAML onto cfg, keeping values the document omits.
// Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays ATRISK_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ATRISK_DB"); v != "" {
		c.Store.DSN = v
	}
	if v := getenv("ATRISK_MODEL"); v != "" {
		c.Models.Default = v
	}
	if v := getenv("ATRISK_REDIS_URL"); v != "" {
		c.Cache.Enabled = true
		c.Cache.RedisURL = v
	}
	if v := getenv("ATRISK_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("ATRISK_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	c.Coach.LLM.ApplyEnv(getenv)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Coach.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid config: coach: %w", err)
	}
	return nil
}

// DefaultVariant returns the configured default model.
func (c *Config) DefaultVariant() (classifier.Variant, error) {
	return classifier.ParseVariant(c.Models.Default)
}

// ArtifactPaths returns the configured artifact overrides keyed by variant.
func (c *Config) ArtifactPaths() (map[classifier.Variant]string, error) {
	out := make(map[classifier.Variant]string, len(c.Models.Artifacts))
	for k, p := range c.Models.Artifacts {
		v, err := classifier.ParseVariant(k)
		if err != nil {
			return nil, err
		}
		out[v] = p
	}
	return out, nil
}

// BuildReference returns the standardization reference for schema: the
// explicit stats, a reference fitted once from the CSV dataset, or the
// built-in reference.
func (c *Config) BuildReference(schema *features.Schema) (*encoder.Reference, error) {
	switch {
	case len(c.Reference.Stats) > 0:
		stats := make(map[string]encoder.Stat, len(c.Reference.Stats))
		for name, s := range c.Reference.Stats {
			stats[name] = encoder.Stat{Mean: s.Mean, Std: s.Std}
		}
		return encoder.NewReference(schema, stats)
	case c.Reference.CSV != "":
		records, err := dataset.ReadRecordsFile(schema, c.Reference.CSV)
		if err != nil {
			return nil, fmt.Errorf("reference dataset: %w", err)
		}
		return encoder.FitReference(schema, records)
	}
	return encoder.DefaultReference(schema), nil
}
