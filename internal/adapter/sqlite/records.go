package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

const recordColumns = `id, title, date, time, latitude, longitude, area_name, catch_status,
	sunrise, sunset, moonrise, moonset, moon_phase,
	barometric_current, barometric_prev_3h, barometric_trend,
	weather_temp, weather_condition,
	tide_station_id, tide_stage, tide_height_ft, tide_rate_ft_per_hour,
	created_at, updated_at`

// groupColumns lists the environmental columns owned by each field group.
var groupColumns = map[domain.FieldGroup][]string{
	domain.GroupAstronomy:  {"sunrise", "sunset", "moonrise", "moonset", "moon_phase"},
	domain.GroupBarometric: {"barometric_current", "barometric_prev_3h", "barometric_trend"},
	domain.GroupTide:       {"tide_station_id", "tide_stage", "tide_height_ft", "tide_rate_ft_per_hour"},
	domain.GroupWeather:    {"weather_temp", "weather_condition"},
}

// groupValues returns env's values for the columns of g, in groupColumns order.
func groupValues(g domain.FieldGroup, env domain.EnvironmentalContext) []any {
	switch g {
	case domain.GroupAstronomy:
		return []any{str(env.Sunrise), str(env.Sunset), str(env.Moonrise), str(env.Moonset), str(env.MoonPhase)}
	case domain.GroupBarometric:
		return []any{num(env.BarometricCurrent), num(env.BarometricPrev3h), str(env.BarometricTrend)}
	case domain.GroupTide:
		return []any{str(env.TideStationID), str(env.TideStage), num(env.TideHeightFt), num(env.TideRateFtPerHour)}
	case domain.GroupWeather:
		return []any{num(env.WeatherTemp), str(env.WeatherCondition)}
	default:
		return nil
	}
}

// InsertRecord stores a new record and returns its id.
func (s *Store) InsertRecord(ctx context.Context, rec domain.FishingRecord) (int64, error) {
	args := []any{rec.Title, rec.Date, rec.Time, num(rec.Latitude), num(rec.Longitude), str(rec.AreaName), rec.CatchStatus}
	for _, g := range domain.AllGroups {
		args = append(args, groupValues(g, rec.Env)...)
	}
	args = append(args, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO fishing_entries (
			title, date, time, latitude, longitude, area_name, catch_status,
			sunrise, sunset, moonrise, moonset, moon_phase,
			barometric_current, barometric_prev_3h, barometric_trend,
			tide_station_id, tide_stage, tide_height_ft, tide_rate_ft_per_hour,
			weather_temp, weather_condition,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert record: %w", domain.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert record id: %w", domain.ErrStorage, err)
	}
	return id, nil
}

// GetRecord returns one record by id.
func (s *Store) GetRecord(ctx context.Context, id int64) (domain.FishingRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM fishing_entries WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return domain.FishingRecord{}, fmt.Errorf("%w: get record %d: %w", domain.ErrStorage, id, err)
	}
	return rec, nil
}

// ListForBackfill returns records missing any column of the group, or all
// records when c.Reprocess is set, oldest first.
func (s *Store) ListForBackfill(ctx context.Context, c domain.BackfillCriteria) ([]domain.FishingRecord, error) {
	cols, ok := groupColumns[c.Group]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field group %q", domain.ErrStorage, c.Group)
	}

	query := `SELECT ` + recordColumns + ` FROM fishing_entries`
	if !c.Reprocess {
		preds := make([]string, len(cols))
		for i, col := range cols {
			preds[i] = col + " IS NULL"
		}
		query += " WHERE " + strings.Join(preds, " OR ")
	}
	query += " ORDER BY id"

	var args []any
	if c.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, c.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.FishingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan record: %w", domain.ErrStorage, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list records: %w", domain.ErrStorage, err)
	}
	return out, nil
}

// UpdateEnvironment writes the columns of group from env and leaves every
// other column untouched.
func (s *Store) UpdateEnvironment(ctx context.Context, id int64, group domain.FieldGroup, env domain.EnvironmentalContext) error {
	cols, ok := groupColumns[group]
	if !ok {
		return fmt.Errorf("%w: unknown field group %q", domain.ErrStorage, group)
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	args := append(groupValues(group, env), formatTime(time.Now()), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE fishing_entries SET `+strings.Join(sets, ", ")+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("%w: update record %d: %w", domain.ErrStorage, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: update record %d: %w", domain.ErrStorage, id, sql.ErrNoRows)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (domain.FishingRecord, error) {
	var (
		rec                                                domain.FishingRecord
		lat, lon, baroCur, baroPrev, temp, height, rate    sql.NullFloat64
		area, sunrise, sunset, moonrise, moonset, phase    sql.NullString
		trend, condition, station, stage, created, updated sql.NullString
	)
	err := sc.Scan(
		&rec.ID, &rec.Title, &rec.Date, &rec.Time, &lat, &lon, &area, &rec.CatchStatus,
		&sunrise, &sunset, &moonrise, &moonset, &phase,
		&baroCur, &baroPrev, &trend,
		&temp, &condition,
		&station, &stage, &height, &rate,
		&created, &updated,
	)
	if err != nil {
		return domain.FishingRecord{}, err
	}

	rec.Latitude, rec.Longitude = floatPtr(lat), floatPtr(lon)
	rec.AreaName = stringPtr(area)
	rec.Env = domain.EnvironmentalContext{
		Sunrise:           stringPtr(sunrise),
		Sunset:            stringPtr(sunset),
		Moonrise:          stringPtr(moonrise),
		Moonset:           stringPtr(moonset),
		MoonPhase:         stringPtr(phase),
		BarometricCurrent: floatPtr(baroCur),
		BarometricPrev3h:  floatPtr(baroPrev),
		WeatherTemp:       floatPtr(temp),
		WeatherCondition:  stringPtr(condition),
		TideStationID:     stringPtr(station),
		TideHeightFt:      floatPtr(height),
		TideRateFtPerHour: floatPtr(rate),
	}
	if trend.Valid {
		rec.Env.BarometricTrend = domain.Ptr(domain.PressureTrend(trend.String))
	}
	if stage.Valid {
		rec.Env.TideStage = domain.Ptr(domain.TideStage(stage.String))
	}
	rec.CreatedAt = parseTime(created)
	rec.UpdatedAt = parseTime(updated)
	return rec, nil
}

func str[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Ptr(v.Float64)
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return domain.Ptr(v.String)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
