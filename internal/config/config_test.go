package config_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pablohpsilva/something-something-sub003/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.HTTPAddr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DatabaseDSN, convey.ShouldNotBeEmpty)
			convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.DailyWindowDays, convey.ShouldEqual, 1)
			convey.So(cfg.WeeklyWindowDays, convey.ShouldEqual, 7)
			convey.So(cfg.MonthlyWindowDays, convey.ShouldEqual, 30)
			convey.So(cfg.AllWindowDays, convey.ShouldEqual, 0)
			convey.So(cfg.RecomputeIntervalMinutes, convey.ShouldEqual, 30)
		})
	})
}
