package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pablohpsilva/something-something-sub003/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.HTTPAddr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.DailyWindowDays, convey.ShouldEqual, 1)
				convey.So(cfg.WeeklyWindowDays, convey.ShouldEqual, 7)
				convey.So(cfg.MonthlyWindowDays, convey.ShouldEqual, 30)
				convey.So(cfg.AllWindowDays, convey.ShouldEqual, 0)
				convey.So(cfg.RecomputeIntervalMinutes, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SSS_HTTP_ADDR", ":9080")
			_ = os.Setenv("SSS_DATABASE_DSN", "postgres://db:5432/ranks")
			_ = os.Setenv("SSS_LEADERBOARD_LIMIT", "250")
			_ = os.Setenv("SSS_WEEKLY_WINDOW_DAYS", "14")
			_ = os.Setenv("SSS_RECOMPUTE_INTERVAL_MINUTES", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.HTTPAddr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DatabaseDSN, convey.ShouldEqual, "postgres://db:5432/ranks")
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 250)
				convey.So(cfg.WeeklyWindowDays, convey.ShouldEqual, 14)
				convey.So(cfg.RecomputeIntervalMinutes, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
http_addr: ":7070"
leaderboard_limit: 50
monthly_window_days: 28
ranked_tags:
  - sql
  - terraform
`
			tmpFile := createTempConfigFile(t, yamlContent)
			clearConfigEnvVars()
			_ = os.Setenv("SSS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.HTTPAddr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 50)
				convey.So(cfg.MonthlyWindowDays, convey.ShouldEqual, 28)
				convey.So(cfg.RankedTags, convey.ShouldResemble, []string{"sql", "terraform"})
			})
		})

		convey.Convey("When env vars override the YAML file", func() {
			tmpFile := createTempConfigFile(t, "leaderboard_limit: 50\n")
			clearConfigEnvVars()
			_ = os.Setenv("SSS_CONFIG", tmpFile)
			_ = os.Setenv("SSS_LEADERBOARD_LIMIT", "75")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the env value wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 75)
			})
		})

		convey.Convey("When the leaderboard limit is not positive", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SSS_LEADERBOARD_LIMIT", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "leaderboard_limit")
			})
		})

		convey.Convey("When the database DSN is emptied out", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SSS_DATABASE_DSN", "")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "database_dsn")
			})
		})

		convey.Convey("When the config file path does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SSS_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"SSS_CONFIG",
		"SSS_LOG_LEVEL",
		"SSS_HTTP_ADDR",
		"SSS_DATABASE_DSN",
		"SSS_LEADERBOARD_LIMIT",
		"SSS_DAILY_WINDOW_DAYS",
		"SSS_WEEKLY_WINDOW_DAYS",
		"SSS_MONTHLY_WINDOW_DAYS",
		"SSS_ALL_WINDOW_DAYS",
		"SSS_RECOMPUTE_INTERVAL_MINUTES",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp config: %v", err)
	}
	return f.Name()
}
