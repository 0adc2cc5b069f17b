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
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SSS_CONFIG is set
//  3. env (prefix SSS_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SSS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SSS_DATABASE_DSN, SSS_LEADERBOARD_LIMIT, ...
	// Map env keys like SSS_LEADERBOARD_LIMIT -> leaderboard_limit (flat
	// keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SSS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "sss_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	}
	if cfg.LeaderboardLimit <= 0 {
		return nil, fmt.Errorf("%w: leaderboard_limit must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
