// Package sqlite persists fishing records and the tide station directory in
// a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS fishing_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	area_name TEXT,
	catch_status TEXT NOT NULL,
	sunrise TEXT,
	sunset TEXT,
	moonrise TEXT,
	moonset TEXT,
	moon_phase TEXT,
	barometric_current REAL,
	barometric_prev_3h REAL,
	barometric_trend TEXT,
	weather_temp REAL,
	weather_condition TEXT,
	tide_station_id TEXT,
	tide_stage TEXT,
	tide_height_ft REAL,
	tide_rate_ft_per_hour REAL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fishing_entries_date ON fishing_entries(date);

CREATE TABLE IF NOT EXISTS tide_stations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	state TEXT,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tide_stations_coords ON tide_stations(latitude, longitude);
`

// Store implements the enrichment record store and the station cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// path may be ":memory:".
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %w", domain.ErrStorage, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrStorage, err)
	}
	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrStorage, pragma, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: apply schema: %w", domain.ErrStorage, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
