package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/database/repositories"
	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/factors"
	"github.com/aristath/quantport/internal/optimize"
	"github.com/aristath/quantport/internal/regime"
	"github.com/aristath/quantport/internal/sources"
	"github.com/aristath/quantport/internal/universe"
)

// RebalanceJob runs the full FactorEngine → BlackLittermanOptimizer
// pipeline at "now" and persists the resulting domain.Snapshot. Replaces
// the teacher's live-trading sync_cycle.go (deleted — see DESIGN.md):
// same Job-interface/logging shape, generalized from a brokerage
// position sync into a research-portfolio rebalance.
type RebalanceJob struct {
	universeName string
	cfg          config.EngineConfig
	settings     optimize.Settings
	live         sources.LiveSource
	snapshots    *repositories.SnapshotRepository
	capital      float64
	log          zerolog.Logger
	now          func() time.Time
}

// NewRebalanceJob constructs a RebalanceJob.
func NewRebalanceJob(universeName string, cfg config.EngineConfig, settings optimize.Settings, live sources.LiveSource, snapshots *repositories.SnapshotRepository, capital float64, log zerolog.Logger) *RebalanceJob {
	return &RebalanceJob{
		universeName: universeName,
		cfg:          cfg,
		settings:     settings,
		live:         live,
		snapshots:    snapshots,
		capital:      capital,
		log:          log.With().Str("component", "rebalance_job").Logger(),
		now:          time.Now,
	}
}

func (j *RebalanceJob) Name() string { return "rebalance" }

func (j *RebalanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	asOf := domain.NewDate(j.now())
	asOfSource := sources.NewAsOfBoundSource(asOf, j.live, j.live)

	provider := universe.NewProvider(j.live, j.log)
	entries, err := provider.Resolve(ctx, j.universeName, asOf)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}
	if err := j.cfg.WeightBoundForUniverse(len(entries)); err != nil {
		return err
	}

	tickers := make(domain.Tickers, len(entries))
	marketCaps := make(map[domain.Ticker]float64, len(entries))
	sectors := make(map[domain.Ticker]string, len(entries))
	for i, en := range entries {
		tickers[i] = en.Ticker
		if en.MarketCap != nil {
			marketCaps[en.Ticker] = *en.MarketCap
		}
		sectors[en.Ticker] = en.Sector
	}

	cfg := j.cfg
	cfg.FactorWeights = regime.ResolveTiltedWeights(ctx, asOfSource, asOf, j.cfg)

	engine := factors.New(asOfSource, cfg, j.log)
	scored, err := engine.Compute(ctx, tickers, asOf)
	if err != nil {
		return fmt.Errorf("factor scoring: %w", err)
	}

	selected := topNByRank(scored.Scores, j.cfg.TopN)

	lookbackStart := asOf.TradingDaysBefore(j.cfg.CovarianceLookbackDays)
	returns := make(map[domain.Ticker][]float64, len(selected))
	latestPrices := make(map[domain.Ticker]float64, len(selected))
	for _, t := range selected {
		bars, err := asOfSource.GetHistory(ctx, t, lookbackStart, asOf)
		if err != nil {
			return fmt.Errorf("ticker %s: price history: %w", t, err)
		}
		closes := bars.AdjCloses()
		rets := make([]float64, 0, len(closes))
		for i := 1; i < len(closes); i++ {
			if closes[i-1] != 0 {
				rets = append(rets, closes[i]/closes[i-1]-1)
			}
		}
		returns[t] = rets
		if bar, ok := bars.AtOrBefore(asOf); ok {
			latestPrices[t] = bar.AdjClose
		}
	}

	opt := optimize.New(j.log)
	alloc, err := opt.Build(ctx, optimize.Inputs{
		Tickers:      selected,
		Scores:       scored.Scores,
		MarketCaps:   marketCaps,
		Sectors:      sectors,
		Returns:      returns,
		LatestPrices: latestPrices,
		Capital:      j.capital,
		Config: optimize.Config{
			MaxPositionSize:   j.cfg.MaxPositionSize,
			FactorAlphaScalar: j.cfg.FactorAlphaScalar,
			RiskAversion:      j.cfg.RiskAversion,
			Tau:               j.cfg.Tau,
		},
		Settings: j.settings,
	})
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	snap := domain.Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: j.now(),
		AsOf:      asOf,
		Result:    alloc,
		Scores:    scored.Scores,
	}
	if err := j.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	j.log.Info().Str("snapshot_id", snap.ID).Int("positions", len(alloc.Weights)).Bool("degraded", alloc.Degraded).Msg("rebalance complete")
	return nil
}

func topNByRank(scores map[domain.Ticker]domain.FactorScores, n int) domain.Tickers {
	type ranked struct {
		ticker domain.Ticker
		rank   int
	}
	all := make([]ranked, 0, len(scores))
	for t, s := range scores {
		all = append(all, ranked{t, s.Rank})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].rank < all[j].rank })
	if n > len(all) {
		n = len(all)
	}
	out := make(domain.Tickers, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].ticker
	}
	return out
}
