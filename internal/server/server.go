// Package server exposes the engine over HTTP: spec.md §6's two
// operations, portfolio construction and backtesting, plus health and
// status endpoints. Grounded on the teacher's internal/server/server.go
// chi+cors+zerolog skeleton, generalized from a brokerage dashboard
// server into a stateless compute API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/database/repositories"
	"github.com/aristath/quantport/internal/sources"
)

// Config carries Server's dependencies.
type Config struct {
	Port      int
	Log       zerolog.Logger
	DB        *sql.DB
	Live      sources.LiveSource
	Engine    config.EngineConfig
	Snapshots *repositories.SnapshotRepository
	DevMode   bool
}

// Server is the HTTP front end over the engine.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	db        *sql.DB
	live      sources.LiveSource
	engineCfg config.EngineConfig
	snapshots *repositories.SnapshotRepository
	cfg       Config
}

// New builds a Server and wires its routes.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		db:        cfg.DB,
		live:      cfg.Live,
		engineCfg: cfg.Engine,
		snapshots: cfg.Snapshots,
		cfg:       cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // backtests can run long
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(150 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/system/status", s.handleSystemStatus)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/portfolio/construct", s.handleConstruct)
		r.Get("/portfolio/latest", s.handleLatestSnapshot)
		r.Post("/backtest/run", s.handleBacktestRun)
	})
}

// loggingMiddleware logs each request's method, path, status, and
// duration once the handler returns.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
