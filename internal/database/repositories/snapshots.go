package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/domain"
)

// SnapshotRepository persists domain.Snapshot records — one row per
// completed rebalance — so the scheduler's periodic run and the HTTP
// server's on-demand run share one history table. Grounded on the
// teacher's BaseRepository pattern (internal/database/repositories/base.go).
type SnapshotRepository struct {
	*BaseRepository
}

// NewSnapshotRepository builds a SnapshotRepository and ensures its
// table exists.
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) (*SnapshotRepository, error) {
	r := &SnapshotRepository{BaseRepository: NewBase(db, log.With().Str("repo", "snapshots").Logger())}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id         TEXT PRIMARY KEY,
			as_of      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload    BLOB NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return r, nil
}

// Save stores s, keyed on s.ID. A rerun with the same ID overwrites.
func (r *SnapshotRepository) Save(ctx context.Context, s domain.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.DB().ExecContext(ctx,
		`INSERT INTO snapshots (id, as_of, created_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		s.ID, s.AsOf.String(), s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), payload)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently created snapshot, or
// domain.ErrNotFound if the table is empty.
func (r *SnapshotRepository) Latest(ctx context.Context) (domain.Snapshot, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT payload FROM snapshots ORDER BY created_at DESC LIMIT 1`)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return domain.Snapshot{}, fmt.Errorf("%w: no snapshots recorded", domain.ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	var s domain.Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
