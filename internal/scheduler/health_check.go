package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HealthCheckJob periodically pings the app database, logging a
// degraded state rather than crashing the process. Replaces the
// teacher's multi-satellite-DB health_check.go (deleted — see
// DESIGN.md): this module has a single app database, so the check
// collapses to one ping instead of a fan-out over satellites.
type HealthCheckJob struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHealthCheckJob constructs a HealthCheckJob.
func NewHealthCheckJob(db *sql.DB, log zerolog.Logger) *HealthCheckJob {
	return &HealthCheckJob{db: db, log: log.With().Str("component", "health_check").Logger()}
}

func (j *HealthCheckJob) Name() string { return "health_check" }

func (j *HealthCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := j.db.PingContext(ctx); err != nil {
		j.log.Error().Err(err).Msg("database ping failed")
		return fmt.Errorf("database ping: %w", err)
	}
	j.log.Debug().Msg("database healthy")
	return nil
}
