package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/quantport/internal/cache"
	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/database"
	"github.com/aristath/quantport/internal/database/repositories"
	"github.com/aristath/quantport/internal/optimize"
	"github.com/aristath/quantport/internal/ratelimit"
	"github.com/aristath/quantport/internal/retryx"
	"github.com/aristath/quantport/internal/scheduler"
	"github.com/aristath/quantport/internal/server"
	"github.com/aristath/quantport/internal/sources/yahoo"
	"github.com/aristath/quantport/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("starting quantport")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	snapshots, err := repositories.NewSnapshotRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize snapshot repository")
	}

	limiter := ratelimit.New(cfg.Engine.RateLimitPerMin)
	live, err := cache.New(
		cfg.HistoricalDir,
		cfg.ConsolidatedDir,
		time.Duration(cfg.Engine.CacheTTLHours)*time.Hour,
		yahoo.NewClient(log),
		limiter,
		log,
		cache.WithRetryPolicy(retryx.DefaultPolicy().WithMaxAttempts(cfg.Engine.MaxRetries)),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize data cache")
	}

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	rebalance := scheduler.NewRebalanceJob("sp500", cfg.Engine, optimize.DefaultSettings(), live, snapshots, 100000, log)
	if err := sched.AddJob("0 30 6 * * MON-FRI", rebalance); err != nil {
		log.Fatal().Err(err).Msg("failed to register rebalance job")
	}

	health := scheduler.NewHealthCheckJob(db.Conn(), log)
	if err := sched.AddJob("@every 5m", health); err != nil {
		log.Fatal().Err(err).Msg("failed to register health check job")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DB:        db.Conn(),
		Live:      live,
		Engine:    cfg.Engine,
		Snapshots: snapshots,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
