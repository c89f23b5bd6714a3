package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/quantport/internal/backtest"
	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/factors"
	"github.com/aristath/quantport/internal/optimize"
	"github.com/aristath/quantport/internal/sources"
	"github.com/aristath/quantport/internal/universe"
)

// constructRequest is spec.md §6's "construct a portfolio as of a given
// date" request: a named universe, an as-of date (defaults to today),
// and the capital to allocate.
type constructRequest struct {
	Universe string  `json:"universe"`
	AsOf     string  `json:"as_of,omitempty"`
	Capital  float64 `json:"capital"`
}

// handleConstruct runs the universe resolution → factor scoring →
// Black-Litterman optimization pipeline once, synchronously, and
// persists the result — the on-demand counterpart to
// scheduler.RebalanceJob's cron-driven run.
func (s *Server) handleConstruct(w http.ResponseWriter, r *http.Request) {
	var req constructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Universe == "" {
		s.writeError(w, http.StatusBadRequest, "universe is required")
		return
	}
	if req.Capital <= 0 {
		s.writeError(w, http.StatusBadRequest, "capital must be positive")
		return
	}

	asOf := domain.NewDate(time.Now())
	if req.AsOf != "" {
		parsed, err := domain.ParseDate(req.AsOf)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid as_of: "+err.Error())
			return
		}
		asOf = parsed
	}

	ctx := r.Context()
	asOfSource := sources.NewAsOfBoundSource(asOf, s.live, s.live)

	provider := universe.NewProvider(s.live, s.log)
	entries, err := provider.Resolve(ctx, req.Universe, asOf)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "resolve universe: "+err.Error())
		return
	}
	if err := s.engineCfg.WeightBoundForUniverse(len(entries)); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
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

	engine := factors.New(asOfSource, s.engineCfg, s.log)
	scored, err := engine.Compute(ctx, tickers, asOf)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "factor scoring: "+err.Error())
		return
	}

	selected := topByRank(scored.Scores, s.engineCfg.TopN)

	lookbackStart := asOf.TradingDaysBefore(s.engineCfg.CovarianceLookbackDays)
	returns := make(map[domain.Ticker][]float64, len(selected))
	latestPrices := make(map[domain.Ticker]float64, len(selected))
	for _, t := range selected {
		bars, err := asOfSource.GetHistory(ctx, t, lookbackStart, asOf)
		if err != nil {
			s.writeError(w, http.StatusBadGateway, fmt.Sprintf("ticker %s: price history: %s", t, err))
			return
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

	opt := optimize.New(s.log)
	alloc, err := opt.Build(ctx, optimize.Inputs{
		Tickers:      selected,
		Scores:       scored.Scores,
		MarketCaps:   marketCaps,
		Sectors:      sectors,
		Returns:      returns,
		LatestPrices: latestPrices,
		Capital:      req.Capital,
		Config: optimize.Config{
			MaxPositionSize:   s.engineCfg.MaxPositionSize,
			FactorAlphaScalar: s.engineCfg.FactorAlphaScalar,
			RiskAversion:      s.engineCfg.RiskAversion,
			Tau:               s.engineCfg.Tau,
		},
		Settings: optimize.DefaultSettings(),
	})
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "optimize: "+err.Error())
		return
	}

	snap := domain.Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		AsOf:      asOf,
		Result:    alloc,
		Scores:    scored.Scores,
	}
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, snap); err != nil {
			s.log.Error().Err(err).Msg("failed to persist snapshot")
		}
	}

	s.writeJSON(w, http.StatusOK, snap)
}

// handleLatestSnapshot returns the most recently persisted construction
// result, for clients that only want to poll rather than trigger a run.
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}
	snap, err := s.snapshots.Latest(r.Context())
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// backtestRequest is spec.md §4.6's walk-forward backtest configuration.
type backtestRequest struct {
	Universe           string  `json:"universe"`
	Start              string  `json:"start"`
	End                string  `json:"end"`
	Frequency          string  `json:"frequency"` // "monthly" or "quarterly"
	InitialCapital     float64 `json:"initial_capital"`
	TransactionCostBps float64 `json:"transaction_cost_bps,omitempty"`
}

// handleBacktestRun runs a full walk-forward backtest synchronously and
// returns the equity curve, rebalance history, and summary statistics.
// Long-running: the server's write timeout is set accordingly.
func (s *Server) handleBacktestRun(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Universe == "" || req.Start == "" || req.End == "" {
		s.writeError(w, http.StatusBadRequest, "universe, start, and end are required")
		return
	}
	if req.InitialCapital <= 0 {
		s.writeError(w, http.StatusBadRequest, "initial_capital must be positive")
		return
	}

	start, err := domain.ParseDate(req.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid start: "+err.Error())
		return
	}
	end, err := domain.ParseDate(req.End)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid end: "+err.Error())
		return
	}

	freq := backtest.Monthly
	if req.Frequency == string(backtest.Quarterly) {
		freq = backtest.Quarterly
	}

	engine := backtest.New(s.live, s.log)
	result, err := engine.Run(r.Context(), backtest.Config{
		UniverseName:       req.Universe,
		Start:              start,
		End:                end,
		Frequency:          freq,
		InitialCapital:     req.InitialCapital,
		TransactionCostBps: req.TransactionCostBps,
		Engine:             s.engineCfg,
		OptimizerSettings:  optimize.DefaultSettings(),
	})
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "backtest: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// topByRank returns the n top-ranked tickers from scores, in rank order.
func topByRank(scores map[domain.Ticker]domain.FactorScores, n int) domain.Tickers {
	out := make(domain.Tickers, 0, n)
	for rank := 1; rank <= n; rank++ {
		for t, sc := range scores {
			if sc.Rank == rank {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
