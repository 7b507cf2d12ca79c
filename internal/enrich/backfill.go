package enrich

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BackfillResult summarises one backfill run.
type BackfillResult struct {
	RunID    string
	Group    domain.FieldGroup
	Scanned  int
	Updated  int
	Skipped  int
	Duration time.Duration
}

// rowOutcome is what happened to one row of a backfill run.
type rowOutcome string

const (
	rowUpdated   rowOutcome = "updated"
	rowUnchanged rowOutcome = "unchanged"
	rowSkipped   rowOutcome = "skipped"
)

// Backfill recomputes one field group for stored records. Upstream series are
// memoized for the run, per location and date, and per station and date for
// tides. Only a store failure aborts the run.
//
// The astronomy, barometric and weather groups fill missing values and keep
// stored ones; a row counts as updated only if something changed. The tide
// group always overwrites stage, station, height and rate, so every row with
// a classifier result is written and counted, including on a rerun over
// unchanged data.
func (e *Enricher) Backfill(ctx context.Context, c domain.BackfillCriteria) (BackfillResult, error) {
	if _, ok := domain.ParseFieldGroup(string(c.Group)); !ok {
		return BackfillResult{}, &domain.ValidationError{Fields: []string{"group"}}
	}

	start := e.clock.Now()
	res := BackfillResult{RunID: uuid.NewString(), Group: c.Group}
	log := e.logger.With("run_id", res.RunID, "group", c.Group)

	rows, err := e.store.ListForBackfill(ctx, c)
	if err != nil {
		return res, storageErr("list records for backfill", err)
	}
	res.Scanned = len(rows)
	log.Info("backfill started", "rows", len(rows), "reprocess", c.Reprocess, "workers", e.opts.BackfillWorkers)

	cache := newBatchCache(e.direct, e.metrics)

	var (
		mu     sync.Mutex
		events []domain.EnrichmentEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.BackfillWorkers)

	for _, rec := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			env, outcome := e.backfillRow(gctx, cache, c.Group, rec)
			if outcome == rowUpdated {
				if err := e.store.UpdateEnvironment(gctx, rec.ID, c.Group, env); err != nil {
					return storageErr(fmt.Sprintf("update record %d", rec.ID), err)
				}
			}

			e.metrics.BackfillRows.WithLabelValues(string(c.Group), string(outcome)).Inc()
			mu.Lock()
			defer mu.Unlock()
			if outcome == rowUpdated {
				res.Updated++
				events = append(events, domain.EnrichmentEvent{
					ID:         uuid.NewString(),
					Kind:       domain.EventBackfilled,
					RecordID:   rec.ID,
					Group:      c.Group,
					RunID:      res.RunID,
					Env:        env,
					OccurredAt: e.clock.Now().UTC(),
				})
			}
			return nil
		})
	}

	err = g.Wait()
	res.Skipped = res.Scanned - res.Updated
	res.Duration = e.clock.Since(start)
	e.metrics.BackfillDuration.WithLabelValues(string(c.Group)).Observe(res.Duration.Seconds())

	if err != nil {
		log.Error("backfill aborted", "updated", res.Updated, "error", err)
		return res, err
	}

	e.publish(ctx, events...)
	log.Info("backfill complete",
		"scanned", res.Scanned,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"cached_locations", cache.press.len()+cache.wx.len()+cache.astro.len(),
		"cached_tides", cache.tideData.len(),
		"duration", res.Duration,
	)
	return res, nil
}

// backfillRow computes the new environmental context for one stored row.
// The returned context is the stored one with the group's fields updated.
func (e *Enricher) backfillRow(ctx context.Context, l loader, group domain.FieldGroup, rec domain.FishingRecord) (domain.EnvironmentalContext, rowOutcome) {
	if !rec.HasCoordinates() || rec.Date == "" || rec.Time == "" {
		return rec.Env, rowSkipped
	}
	catchAt, err := domain.CatchTime(rec.Date, rec.Time, e.opts.Location)
	if err != nil {
		e.logger.Debug("backfill row has unreadable catch time", "record_id", rec.ID, "error", err)
		return rec.Env, rowSkipped
	}

	lat, lon := *rec.Latitude, *rec.Longitude
	stored := rec.Env
	env := rec.Env

	switch group {
	case domain.GroupAstronomy:
		res := l.astronomy(ctx, lat, lon, rec.Date)
		if _, ok := res.Get(); !ok {
			return stored, rowSkipped
		}
		a := resolveAstronomy(res)
		env.Sunrise = firstNonNil(env.Sunrise, a.sunrise)
		env.Sunset = firstNonNil(env.Sunset, a.sunset)
		env.Moonrise = firstNonNil(env.Moonrise, a.moonrise)
		env.Moonset = firstNonNil(env.Moonset, a.moonset)
		env.MoonPhase = firstNonNil(env.MoonPhase, a.moonPhase)

	case domain.GroupBarometric:
		if env.BarometricCurrent == nil || env.BarometricPrev3h == nil {
			cur, prev := resolvePressure(l.pressure(ctx, lat, lon, rec.Date), catchAt)
			env.BarometricCurrent = firstNonNil(env.BarometricCurrent, cur)
			env.BarometricPrev3h = firstNonNil(env.BarometricPrev3h, prev)
		}
		if env.BarometricTrend == nil {
			env.BarometricTrend = domain.BaroTrendWithin(env.BarometricCurrent, env.BarometricPrev3h, e.opts.BaroDeadband)
		}

	case domain.GroupWeather:
		if env.WeatherTemp == nil || env.WeatherCondition == nil {
			temp, condition := resolveWeather(l.weather(ctx, lat, lon, rec.Date), catchAt)
			env.WeatherTemp = firstNonNil(env.WeatherTemp, temp)
			env.WeatherCondition = firstNonNil(env.WeatherCondition, condition)
		}

	case domain.GroupTide:
		// Tide fields are overwritten unconditionally, unlike the other
		// groups. Reruns rewrite identical values and count them as updated.
		st, ok := e.stations.Nearest(lat, lon)
		if !ok {
			return stored, rowSkipped
		}
		reading, ok := resolveTide(l.tides(ctx, st.ID, rec.Date), catchAt)
		if !ok {
			return stored, rowSkipped
		}
		env.TideStationID = domain.Ptr(st.ID)
		env.TideStage = domain.Ptr(reading.Stage)
		env.TideHeightFt = domain.Ptr(reading.HeightFt)
		env.TideRateFtPerHour = domain.Ptr(reading.RateFtPerHr)
		return env, rowUpdated
	}

	if reflect.DeepEqual(env, stored) {
		return stored, rowUnchanged
	}
	return env, rowUpdated
}
