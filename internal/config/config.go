// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string `koanf:"database_dsn"`

	// HTTPAddr configures the listen address for the read API and the
	// Prometheus endpoint, e.g. ":8080".
	HTTPAddr string `koanf:"http_addr"`

	// LeaderboardLimit caps ranked entries per snapshot.
	LeaderboardLimit int `koanf:"leaderboard_limit"`

	// Aggregation windows in days per period. Zero means unbounded.
	DailyWindowDays   int `koanf:"daily_window_days"`
	WeeklyWindowDays  int `koanf:"weekly_window_days"`
	MonthlyWindowDays int `koanf:"monthly_window_days"`
	AllWindowDays     int `koanf:"all_window_days"`

	// RecomputeIntervalMinutes sets the cron-style snapshot recompute
	// cadence. Zero disables the ticker (one recompute on boot only).
	RecomputeIntervalMinutes int `koanf:"recompute_interval_minutes"`

	// RankedTags and RankedModels are the TAG and MODEL scope
	// partitions recomputed alongside GLOBAL.
	RankedTags   []string `koanf:"ranked_tags"`
	RankedModels []string `koanf:"ranked_models"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		DatabaseDSN:              "postgres://localhost:5432/sss?sslmode=disable",
		HTTPAddr:                 ":8080",
		LeaderboardLimit:         100,
		DailyWindowDays:          1,
		WeeklyWindowDays:         7,
		MonthlyWindowDays:        30,
		AllWindowDays:            0,
		RecomputeIntervalMinutes: 30,
	}
}
