// Command engine runs the leaderboard snapshot and achievement engine
// as a daemon: it recomputes the configured leaderboards on a cron-like
// cadence and serves the read API plus Prometheus metrics. The
// platform's write-side event hooks call into the same internal/app
// package in-process; this binary is the recompute trigger and the
// read surface.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pablohpsilva/something-something-sub003/internal/adapters/http/api"
	"github.com/pablohpsilva/something-something-sub003/internal/adapters/repository"
	app "github.com/pablohpsilva/something-something-sub003/internal/app"
	"github.com/pablohpsilva/something-something-sub003/internal/config"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
	"github.com/pablohpsilva/something-something-sub003/pkg/logger"
	"github.com/pablohpsilva/something-something-sub003/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error(ctx, "failed to connect to database", logger.Error(err))
		return
	}

	store := repository.New(db)
	if err := store.AutoMigrate(); err != nil {
		log.Error(ctx, "failed to migrate engine tables", logger.Error(err))
		return
	}

	engine := app.New(store,
		app.WithLogger(log),
		app.WithLimit(cfg.LeaderboardLimit),
		app.WithWindowDays(types.PeriodDaily, cfg.DailyWindowDays),
		app.WithWindowDays(types.PeriodWeekly, cfg.WeeklyWindowDays),
		app.WithWindowDays(types.PeriodMonthly, cfg.MonthlyWindowDays),
		app.WithWindowDays(types.PeriodAll, cfg.AllWindowDays),
	)

	seeded, err := engine.SeedBadgeCatalog(ctx)
	if err != nil {
		log.Error(ctx, "failed to seed badge catalog", logger.Error(err))
		return
	}
	log.Info(ctx, "badge catalog seeded", logger.Int("created", seeded))

	// Read API plus Prometheus endpoint on one listener.
	mux := http.NewServeMux()
	api.NewServer(engine, cfg.LeaderboardLimit).Register(ctx, mux)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting http server", logger.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http server failed", logger.Error(err))
		}
	}()

	recompute := func() {
		start := time.Now()
		effects, err := engine.RecomputeAll(ctx, cfg.RankedTags, cfg.RankedModels)
		if err != nil {
			log.Error(ctx, "recompute run finished with errors", logger.Error(err))
		}
		// Badge notifications are fire-and-forget: the award is durable
		// either way, so a lost dispatch is acceptable here.
		for _, fx := range effects {
			log.Info(ctx, "dispatching award notification",
				logger.String("kind", fx.Kind),
				logger.String("userID", fx.UserID),
				logger.String("badge", fx.BadgeSlug),
			)
		}
		log.Info(ctx, "recompute run complete", logger.Duration("took", time.Since(start)))
	}

	// One run on boot, then the configured cadence.
	recompute()
	if cfg.RecomputeIntervalMinutes > 0 {
		ticker := time.NewTicker(time.Duration(cfg.RecomputeIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdown(srv, log)
				return
			case <-ticker.C:
				recompute()
			}
		}
	}

	<-ctx.Done()
	shutdown(srv, log)
}

func shutdown(srv *http.Server, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(ctx, "http server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "engine stopped")
}
