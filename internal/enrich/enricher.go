// Package enrich resolves the environmental context of fishing records, for
// a single insert and for batch backfill of stored records.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators of an Enricher. Publisher and Clock are optional.
type Deps struct {
	Sources   Sources
	Stations  *domain.GeoIndex
	Store     Store
	Publisher Publisher
	Clock     clockwork.Clock
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Options tune enrichment behaviour.
type Options struct {
	// Location is the zone catch dates and times are recorded in.
	Location *time.Location
	// UpstreamTimeout bounds each upstream fetch. Zero disables it.
	UpstreamTimeout time.Duration
	// BaroDeadband is the Steady band for pressure trend, in hPa.
	BaroDeadband float64
	// BackfillWorkers is the number of rows processed in parallel.
	BackfillWorkers int
}

// Enricher resolves environmental context. It is safe for concurrent use.
type Enricher struct {
	direct    *directLoader
	stations  *domain.GeoIndex
	store     Store
	publisher Publisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	opts      Options
}

// New creates an Enricher.
func New(deps Deps, opts Options) *Enricher {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BaroDeadband <= 0 {
		opts.BaroDeadband = domain.DefaultBaroDeadband
	}
	if opts.BackfillWorkers < 1 {
		opts.BackfillWorkers = 1
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Enricher{
		direct: &directLoader{
			sources: deps.Sources,
			timeout: opts.UpstreamTimeout,
			logger:  deps.Logger,
		},
		stations:  deps.Stations,
		store:     deps.Store,
		publisher: deps.Publisher,
		clock:     clock,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		opts:      opts,
	}
}

// fetched holds the settled upstream results for one record.
type fetched struct {
	astronomy domain.Result[domain.Astronomy]
	station   *domain.Station
	tide      tideSeries
	pressure  domain.Result[[]domain.TimeSample]
	weather   domain.Result[domain.HourlyWeather]
}

// Enrich resolves the environmental context for rec. Manual inputs carried
// in rec.Env are merged with computed values. Upstream failures leave their
// own fields nil and never fail the call.
func (e *Enricher) Enrich(ctx context.Context, rec domain.FishingRecord) domain.EnvironmentalContext {
	defer e.metrics.RecordsEnriched.Inc()

	manual := rec.Env
	out := domain.EnvironmentalContext{
		MoonPhase:         manualString(manual.MoonPhase),
		BarometricCurrent: manualFloat(manual.BarometricCurrent),
		BarometricPrev3h:  manualFloat(manual.BarometricPrev3h),
		WeatherTemp:       manualFloat(manual.WeatherTemp),
		TideStage:         manualStage(manual.TideStage),
	}
	if manual.WeatherCondition != nil {
		out.WeatherCondition = domain.NormalizeCondition(*manual.WeatherCondition)
	}

	catchAt, err := domain.CatchTime(rec.Date, rec.Time, e.opts.Location)
	if err != nil || !rec.HasCoordinates() {
		if err != nil {
			e.logger.Warn("catch time unreadable, skipping upstream lookups", "record_id", rec.ID, "error", err)
		}
		out.BarometricTrend = domain.BaroTrendWithin(out.BarometricCurrent, out.BarometricPrev3h, e.opts.BaroDeadband)
		return out
	}

	f := e.fetchAll(ctx, rec, needPressure(out), needWeather(out))

	astro := resolveAstronomy(f.astronomy)
	out.Sunrise, out.Sunset = astro.sunrise, astro.sunset
	out.Moonrise, out.Moonset = astro.moonrise, astro.moonset
	out.MoonPhase = firstNonNil(out.MoonPhase, astro.moonPhase)

	if f.station != nil {
		out.TideStationID = domain.Ptr(f.station.ID)
		if reading, ok := resolveTide(f.tide, catchAt); ok {
			out.TideStage = firstNonNil(out.TideStage, domain.Ptr(reading.Stage))
			out.TideHeightFt = domain.Ptr(reading.HeightFt)
			out.TideRateFtPerHour = domain.Ptr(reading.RateFtPerHr)
		}
	}

	cur, prev := resolvePressure(f.pressure, catchAt)
	out.BarometricCurrent = firstNonNil(out.BarometricCurrent, cur)
	out.BarometricPrev3h = firstNonNil(out.BarometricPrev3h, prev)
	out.BarometricTrend = domain.BaroTrendWithin(out.BarometricCurrent, out.BarometricPrev3h, e.opts.BaroDeadband)

	temp, condition := resolveWeather(f.weather, catchAt)
	out.WeatherTemp = firstNonNil(out.WeatherTemp, temp)
	out.WeatherCondition = firstNonNil(out.WeatherCondition, condition)

	return out
}

func needPressure(manual domain.EnvironmentalContext) bool {
	return manual.BarometricCurrent == nil || manual.BarometricPrev3h == nil
}

func needWeather(manual domain.EnvironmentalContext) bool {
	return manual.WeatherTemp == nil || manual.WeatherCondition == nil
}

// fetchAll issues the record's upstream fetches concurrently and returns once
// every one has settled.
func (e *Enricher) fetchAll(ctx context.Context, rec domain.FishingRecord, pressure, weather bool) fetched {
	lat, lon := *rec.Latitude, *rec.Longitude

	var f fetched
	if st, ok := e.stations.Nearest(lat, lon); ok {
		f.station = &st
	}

	var g errgroup.Group
	g.Go(func() error {
		f.astronomy = e.direct.astronomy(ctx, lat, lon, rec.Date)
		return nil
	})
	if f.station != nil {
		g.Go(func() error {
			f.tide = e.direct.tides(ctx, f.station.ID, rec.Date)
			return nil
		})
	}
	if pressure {
		g.Go(func() error {
			f.pressure = e.direct.pressure(ctx, lat, lon, rec.Date)
			return nil
		})
	}
	if weather {
		g.Go(func() error {
			f.weather = e.direct.weather(ctx, lat, lon, rec.Date)
			return nil
		})
	}
	_ = g.Wait()

	return f
}

// Insert validates rec, enriches it, stores it and publishes an event.
// Validation failures return a *domain.ValidationError and store failures
// wrap domain.ErrStorage. A publish failure is logged only.
func (e *Enricher) Insert(ctx context.Context, rec domain.FishingRecord) (domain.FishingRecord, error) {
	if err := domain.Validate(rec); err != nil {
		return domain.FishingRecord{}, err
	}

	rec.Env = e.Enrich(ctx, rec)
	now := e.clock.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := e.store.InsertRecord(ctx, rec)
	if err != nil {
		return domain.FishingRecord{}, storageErr("insert record", err)
	}
	rec.ID = id
	e.metrics.RecordsInserted.Inc()

	e.publish(ctx, domain.EnrichmentEvent{
		ID:         uuid.NewString(),
		Kind:       domain.EventInserted,
		RecordID:   id,
		Env:        rec.Env,
		OccurredAt: now,
	})

	e.logger.Info("record inserted", "record_id", id, "tide_station", deref(rec.Env.TideStationID))
	return rec, nil
}

func (e *Enricher) publish(ctx context.Context, events ...domain.EnrichmentEvent) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.Publish(ctx, events...); err != nil {
		e.metrics.PublishErrors.Add(float64(len(events)))
		e.logger.Warn("publish enrichment events failed", "events", len(events), "error", err)
		return
	}
	e.metrics.EventsPublished.Add(float64(len(events)))
}

// CheckReadiness reports whether the record store is reachable.
func (e *Enricher) CheckReadiness(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
