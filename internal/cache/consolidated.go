package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristath/quantport/internal/domain"
)

// consolidatedEntry is the on-disk shape of one ticker's consolidated
// cache blob: the latest fundamentals snapshot and market cap/sector the
// engine has seen, stamped with when it was fetched so TTL can be
// evaluated without touching the network.
type consolidatedEntry struct {
	Ticker       domain.Ticker                  `json:"ticker"`
	Fundamentals *domain.FundamentalsSnapshot   `json:"fundamentals,omitempty"`
	MarketCap    *float64                       `json:"market_cap,omitempty"`
	Sector       string                         `json:"sector,omitempty"`
	FetchedAt    time.Time                      `json:"fetched_at"`
}

// ConsolidatedCache is the middle tier: one JSON file per ticker holding
// the latest fundamentals/market-cap snapshot, refreshed on a TTL.
// Grounded on the teacher's consolidated-cache blobs, written with an
// atomic temp-file-then-rename per spec.md §5 ("cache writes are atomic:
// write to a temp file, then rename").
type ConsolidatedCache struct {
	dir string
	ttl time.Duration
}

// NewConsolidatedCache creates a consolidated cache rooted at dir with
// the given TTL.
func NewConsolidatedCache(dir string, ttl time.Duration) (*ConsolidatedCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create consolidated cache directory: %w", err)
	}
	return &ConsolidatedCache{dir: dir, ttl: ttl}, nil
}

func (c *ConsolidatedCache) path(ticker domain.Ticker) string {
	safe := strings.ReplaceAll(ticker.String(), ".", "_")
	return filepath.Join(c.dir, fmt.Sprintf("ticker_%s.json", safe))
}

func (c *ConsolidatedCache) read(ticker domain.Ticker) (consolidatedEntry, bool, error) {
	data, err := os.ReadFile(c.path(ticker))
	if os.IsNotExist(err) {
		return consolidatedEntry{}, false, nil
	}
	if err != nil {
		return consolidatedEntry{}, false, fmt.Errorf("failed to read consolidated cache for %s: %w", ticker, err)
	}
	var entry consolidatedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return consolidatedEntry{}, false, fmt.Errorf("%w: corrupt consolidated cache for %s: %s", domain.ErrDataIntegrity, ticker, err)
	}
	return entry, true, nil
}

// write performs an atomic write: write to a sibling temp file, fsync,
// then rename over the target. A crash mid-write never leaves a
// truncated/partial cache file behind.
func (c *ConsolidatedCache) write(ticker domain.Ticker, entry consolidatedEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal consolidated cache entry for %s: %w", ticker, err)
	}

	target := c.path(ticker)
	tmp := target + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file for %s: %w", ticker, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp cache file for %s: %w", ticker, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp cache file for %s: %w", ticker, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp cache file for %s: %w", ticker, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp cache file for %s: %w", ticker, err)
	}
	return nil
}

// GetFundamentals returns the cached snapshot if present and still within
// TTL. A zero-value ok=false means the caller must fall through to the
// live source.
func (c *ConsolidatedCache) GetFundamentals(ticker domain.Ticker, now time.Time) (domain.FundamentalsSnapshot, bool, error) {
	entry, ok, err := c.read(ticker)
	if err != nil || !ok || entry.Fundamentals == nil {
		return domain.FundamentalsSnapshot{}, false, err
	}
	if now.Sub(entry.FetchedAt) > c.ttl {
		return domain.FundamentalsSnapshot{}, false, nil
	}
	return *entry.Fundamentals, true, nil
}

// PutFundamentals writes a fresh fundamentals snapshot, preserving
// whatever market-cap/sector entry already exists on disk.
func (c *ConsolidatedCache) PutFundamentals(ticker domain.Ticker, snap domain.FundamentalsSnapshot, now time.Time) error {
	entry, _, err := c.read(ticker)
	if err != nil {
		return err
	}
	entry.Ticker = ticker
	entry.Fundamentals = &snap
	entry.FetchedAt = now
	return c.write(ticker, entry)
}

// GetMarketCapAndSector mirrors GetFundamentals for the market-cap/sector
// pair used by universe enrichment.
func (c *ConsolidatedCache) GetMarketCapAndSector(ticker domain.Ticker, now time.Time) (float64, string, bool, error) {
	entry, ok, err := c.read(ticker)
	if err != nil || !ok || entry.MarketCap == nil {
		return 0, "", false, err
	}
	if now.Sub(entry.FetchedAt) > c.ttl {
		return 0, "", false, nil
	}
	return *entry.MarketCap, entry.Sector, true, nil
}

// PutMarketCapAndSector writes a fresh market-cap/sector pair, preserving
// whatever fundamentals entry already exists on disk.
func (c *ConsolidatedCache) PutMarketCapAndSector(ticker domain.Ticker, marketCap float64, sector string, now time.Time) error {
	entry, _, err := c.read(ticker)
	if err != nil {
		return err
	}
	entry.Ticker = ticker
	entry.MarketCap = &marketCap
	entry.Sector = sector
	entry.FetchedAt = now
	return c.write(ticker, entry)
}
