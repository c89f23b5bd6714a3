// Command backtest runs a single walk-forward backtest from the
// command line and prints its summary statistics — a batch counterpart
// to the HTTP server's POST /v1/backtest/run, useful for one-off runs
// during development without standing up the full service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/aristath/quantport/internal/backtest"
	"github.com/aristath/quantport/internal/cache"
	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/optimize"
	"github.com/aristath/quantport/internal/ratelimit"
	"github.com/aristath/quantport/internal/retryx"
	"github.com/aristath/quantport/internal/sources/yahoo"
	"github.com/aristath/quantport/pkg/logger"
)

func main() {
	universe := flag.String("universe", "sp500", "universe name")
	start := flag.String("start", "", "backtest start date, YYYY-MM-DD")
	end := flag.String("end", "", "backtest end date, YYYY-MM-DD")
	frequency := flag.String("frequency", "monthly", "rebalance frequency: monthly or quarterly")
	capital := flag.Float64("capital", 100000, "initial capital")
	costBps := flag.Float64("cost-bps", 0, "transaction cost in basis points")
	flag.Parse()

	log := logger.New(logger.Config{Level: "info", Pretty: true})
	logger.SetGlobalLogger(log)

	if *start == "" || *end == "" {
		log.Fatal().Msg("-start and -end are required")
	}
	startDate, err := domain.ParseDate(*start)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -start")
	}
	endDate, err := domain.ParseDate(*end)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -end")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
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

	freq := backtest.Monthly
	if *frequency == string(backtest.Quarterly) {
		freq = backtest.Quarterly
	}

	engine := backtest.New(live, log)
	result, err := engine.Run(context.Background(), backtest.Config{
		UniverseName:       *universe,
		Start:              startDate,
		End:                endDate,
		Frequency:          freq,
		InitialCapital:     *capital,
		TransactionCostBps: *costBps,
		Engine:             cfg.Engine,
		OptimizerSettings:  optimize.DefaultSettings(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Stats); err != nil {
		log.Fatal().Err(err).Msg("failed to encode result")
	}
}
