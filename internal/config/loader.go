package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MATCHD_CONFIG is set
//  3. env (prefix MATCHD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MATCHD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MATCHD_ADDR, MATCHD_COMPUTE_TIMEOUT, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("MATCHD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "matchd_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ComputeTimeout <= 0:
		return fmt.Errorf("%w: compute_timeout must be positive", ErrInvalidConfig)
	case c.RescoreQueueSize <= 0:
		return fmt.Errorf("%w: rescore_queue_size must be positive", ErrInvalidConfig)
	case c.RescoreWorkerCount <= 0:
		return fmt.Errorf("%w: rescore_worker_count must be positive", ErrInvalidConfig)
	case c.SnapshotHistoryLimit <= 0:
		return fmt.Errorf("%w: snapshot_history_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
