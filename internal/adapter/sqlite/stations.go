package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// LoadStations returns the cached station directory in the order it was saved.
func (s *Store) LoadStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(state, ''), latitude, longitude FROM tide_stations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: load stations: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.Station
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Region, &st.Lat, &st.Lon); err != nil {
			return nil, fmt.Errorf("%w: scan station: %w", domain.ErrStorage, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load stations: %w", domain.ErrStorage, err)
	}
	return out, nil
}

// SaveStations inserts stations in one transaction. Stations already cached
// are left as they are.
func (s *Store) SaveStations(ctx context.Context, stations []domain.Station) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO tide_stations (id, name, state, latitude, longitude) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare station insert: %w", domain.ErrStorage, err)
	}
	defer stmt.Close()

	count := 0
	for _, st := range stations {
		res, err := stmt.ExecContext(ctx, st.ID, st.Name, st.Region, st.Lat, st.Lon)
		if err != nil {
			return 0, fmt.Errorf("%w: insert station %s: %w", domain.ErrStorage, st.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit stations: %w", domain.ErrStorage, err)
	}
	return count, nil
}

// StationDirectory serves stations from the local cache, provisioning it from
// a remote directory the first time it is empty.
type StationDirectory struct {
	store  *Store
	remote domain.StationDirectory
	logger *slog.Logger
}

// NewStationDirectory wraps remote with the store's station cache. remote may
// be nil, in which case only cached stations are served.
func NewStationDirectory(store *Store, remote domain.StationDirectory, logger *slog.Logger) *StationDirectory {
	return &StationDirectory{store: store, remote: remote, logger: logger}
}

// Stations implements domain.StationDirectory.
func (d *StationDirectory) Stations(ctx context.Context) ([]domain.Station, error) {
	cached, err := d.store.LoadStations(ctx)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 || d.remote == nil {
		return cached, nil
	}

	d.logger.Info("station cache empty, provisioning from remote directory")
	fetched, err := d.remote.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("provision stations: %w", err)
	}
	n, err := d.store.SaveStations(ctx, fetched)
	if err != nil {
		return nil, err
	}
	d.logger.Info("station cache provisioned", "stations", n)
	return d.store.LoadStations(ctx)
}
