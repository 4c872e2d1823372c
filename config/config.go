// Package config reads wordstore settings from WORDSTORE_* environment
// variables and opens the configured backend.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wordstore"
	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/store/boltstore"
	"github.com/wippyai/wordstore/store/memstore"
	"github.com/wippyai/wordstore/store/sqlitestore"
	"github.com/wippyai/wordstore/word"
	"github.com/wippyai/wordstore/world"
)

// Backend names accepted in WORDSTORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Config holds the runtime settings of a world.
type Config struct {
	Backend     string `env:"WORDSTORE_BACKEND" envDefault:"memory"`
	Path        string `env:"WORDSTORE_PATH"`
	Encoding    string `env:"WORDSTORE_ENCODING" envDefault:"legacy"`
	LogLevel    string `env:"WORDSTORE_LOG_LEVEL" envDefault:"info"`
	WorldOwner  string `env:"WORDSTORE_WORLD_OWNER" envDefault:"0x1"`
	MetricsAddr string `env:"WORDSTORE_METRICS_ADDR"`
	CacheSize   int    `env:"WORDSTORE_CACHE_SIZE" envDefault:"128"`
	Development bool   `env:"WORDSTORE_DEV"`

	encoding schema.Encoding
	owner    word.Address
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse env")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).Detail(format, args...).Build()
}

func (c *Config) validate() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendMemory:
	case BackendBolt, BackendSQLite:
		if c.Path == "" {
			return invalid("WORDSTORE_PATH is required for the %s backend", c.Backend)
		}
	default:
		return invalid("unknown backend %q", c.Backend)
	}

	enc, err := schema.ParseEncoding(c.Encoding)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "WORDSTORE_ENCODING")
	}
	c.encoding = enc

	owner, err := word.ParseAddress(c.WorldOwner)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "WORDSTORE_WORLD_OWNER")
	}
	c.owner = owner

	if c.CacheSize <= 0 {
		return invalid("cache size must be positive, got %d", c.CacheSize)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "WORDSTORE_LOG_LEVEL")
	}
	return nil
}

// EncodingValue returns the parsed enum encoding.
func (c Config) EncodingValue() schema.Encoding {
	return c.encoding
}

// Owner returns the parsed world owner account.
func (c Config) Owner() word.Address {
	return c.owner
}

// OpenStore opens the configured backend.
func (c Config) OpenStore() (wordstore.Store, error) {
	switch c.Backend {
	case BackendBolt:
		st, err := boltstore.Open(c.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendSQLite:
		st, err := sqlitestore.Open(c.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMemory, "":
		return memstore.New(), nil
	}
	return nil, invalid("unknown backend %q", c.Backend)
}

// NewLogger builds a production logger, or a development one when
// WORDSTORE_DEV is set, at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// OpenWorld opens the store and the world kept in it. The store is closed
// if the world cannot be opened.
func (c Config) OpenWorld(ctx context.Context, logger *zap.Logger, opts ...world.Option) (*world.World, wordstore.Store, error) {
	st, err := c.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	base := []world.Option{
		world.WithEncoding(c.encoding),
		world.WithCacheSize(c.CacheSize),
	}
	if logger != nil {
		base = append(base, world.WithLogger(logger))
	}
	w, err := world.New(ctx, st, c.owner, append(base, opts...)...)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("open world: %w", err)
	}
	return w, st, nil
}
