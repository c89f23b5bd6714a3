// Package cache implements spec.md §5's tiered data resolution: historical
// store -> consolidated cache -> live source, each tier cheaper to miss
// than the one behind it. Grounded on the teacher's per-symbol SQLite
// history database (internal/modules/universe/history_db.go) and its
// consolidated-cache JSON blobs referenced throughout the original
// securities_data_sync job.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, one file per ticker

	"github.com/aristath/quantport/internal/domain"
)

// HistoricalStore is the durable tier: one SQLite file per ticker under
// historyDir, holding the full daily OHLCV series ever observed. It never
// expires and is always consulted before any network call. When a window
// is not covered and is refetched, Put upserts the fetched bars, so a
// live bar replaces a stored bar with the same date.
type HistoricalStore struct {
	dir string
}

// NewHistoricalStore creates a historical store rooted at dir, creating
// the directory if absent.
func NewHistoricalStore(dir string) (*HistoricalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create historical store directory: %w", err)
	}
	return &HistoricalStore{dir: dir}, nil
}

func (h *HistoricalStore) dbPath(ticker domain.Ticker) string {
	safe := strings.ReplaceAll(ticker.String(), ".", "_")
	return filepath.Join(h.dir, safe+".db")
}

func (h *HistoricalStore) open(ticker domain.Ticker) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", h.dbPath(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to open historical store for %s: %w", ticker, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping historical store for %s: %w", ticker, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate historical store for %s: %w", ticker, err)
	}
	return db, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS daily_prices (
	date      TEXT PRIMARY KEY,
	open      REAL NOT NULL,
	high      REAL NOT NULL,
	low       REAL NOT NULL,
	close     REAL NOT NULL,
	adj_close REAL NOT NULL,
	volume    INTEGER NOT NULL DEFAULT 0
);
`

// GetRange returns the bars in [start, end) that the store already has,
// without touching the network. Callers diff this against the requested
// window to find what still needs fetching.
func (h *HistoricalStore) GetRange(ticker domain.Ticker, start, end domain.Date) (domain.PriceSeries, error) {
	db, err := h.open(ticker)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(
		`SELECT date, open, high, low, close, adj_close, volume FROM daily_prices
		 WHERE date >= ? AND date < ? ORDER BY date ASC`,
		start.String(), end.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical store for %s: %w", ticker, err)
	}
	defer rows.Close()

	var out domain.PriceSeries
	for rows.Next() {
		var dateStr string
		var bar domain.PriceBar
		if err := rows.Scan(&dateStr, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.AdjClose, &bar.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan historical bar for %s: %w", ticker, err)
		}
		d, err := domain.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q in historical store for %s", domain.ErrDataIntegrity, dateStr, ticker)
		}
		bar.Date = d
		out = append(out, bar)
	}
	return out, rows.Err()
}

// Put upserts bars into the store inside a single transaction.
func (h *HistoricalStore) Put(ticker domain.Ticker, bars domain.PriceSeries) error {
	if len(bars) == 0 {
		return nil
	}
	db, err := h.open(ticker)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", ticker, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_prices (date, open, high, low, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", ticker, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(b.Date.String(), b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume); err != nil {
			return fmt.Errorf("failed to insert bar %s for %s: %w", b.Date, ticker, err)
		}
	}
	return tx.Commit()
}
