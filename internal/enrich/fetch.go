package enrich

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"golang.org/x/sync/errgroup"
)

var errSourceDisabled = errors.New("source not configured")

// tideSeries holds the two independently fetched tide inputs for one
// station and day.
type tideSeries struct {
	extremes domain.Result[[]domain.TideExtreme]
	heights  domain.Result[[]domain.TimeSample]
}

// input selects the classifier input from whichever series arrived.
func (s tideSeries) input() domain.TideInput {
	heights, _ := s.heights.Get()
	extremes, _ := s.extremes.Get()
	return domain.SelectTideInput(heights, extremes)
}

// loader resolves upstream series for one record. The direct loader calls
// the sources; batchCache memoizes a loader for the length of a backfill run.
type loader interface {
	astronomy(ctx context.Context, lat, lon float64, date string) domain.Result[domain.Astronomy]
	pressure(ctx context.Context, lat, lon float64, date string) domain.Result[[]domain.TimeSample]
	weather(ctx context.Context, lat, lon float64, date string) domain.Result[domain.HourlyWeather]
	tides(ctx context.Context, stationID, date string) tideSeries
}

type directLoader struct {
	sources Sources
	timeout time.Duration
	logger  *slog.Logger
}

// call runs one upstream fetch under the per-call timeout and settles it.
// Failures are logged here, once per fetch.
func call[T any](ctx context.Context, l *directLoader, source string, fetch func(context.Context) (T, error)) domain.Result[T] {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	v, err := fetch(ctx)
	res := domain.Settle(v, err)
	if err := res.Err(); err != nil {
		l.logger.Warn("upstream fetch failed", "source", source, "error", err)
	}
	return res
}

func (l *directLoader) astronomy(ctx context.Context, lat, lon float64, date string) domain.Result[domain.Astronomy] {
	if l.sources.Astronomy == nil {
		return domain.Failed[domain.Astronomy](errSourceDisabled)
	}
	return call(ctx, l, "astronomy", func(ctx context.Context) (domain.Astronomy, error) {
		return l.sources.Astronomy.Astronomy(ctx, lat, lon, date)
	})
}

func (l *directLoader) pressure(ctx context.Context, lat, lon float64, date string) domain.Result[[]domain.TimeSample] {
	if l.sources.Pressure == nil {
		return domain.Failed[[]domain.TimeSample](errSourceDisabled)
	}
	return call(ctx, l, "pressure", func(ctx context.Context) ([]domain.TimeSample, error) {
		return l.sources.Pressure.HourlyPressure(ctx, lat, lon, date)
	})
}

func (l *directLoader) weather(ctx context.Context, lat, lon float64, date string) domain.Result[domain.HourlyWeather] {
	if l.sources.Weather == nil {
		return domain.Failed[domain.HourlyWeather](errSourceDisabled)
	}
	return call(ctx, l, "weather", func(ctx context.Context) (domain.HourlyWeather, error) {
		return l.sources.Weather.HourlyWeather(ctx, lat, lon, date)
	})
}

// tides issues the event and height requests concurrently and waits for both.
func (l *directLoader) tides(ctx context.Context, stationID, date string) tideSeries {
	if l.sources.Tides == nil {
		return tideSeries{
			extremes: domain.Failed[[]domain.TideExtreme](errSourceDisabled),
			heights:  domain.Failed[[]domain.TimeSample](errSourceDisabled),
		}
	}

	var out tideSeries
	var g errgroup.Group
	g.Go(func() error {
		out.extremes = call(ctx, l, "tide_extremes", func(ctx context.Context) ([]domain.TideExtreme, error) {
			return l.sources.Tides.TideExtremes(ctx, stationID, date)
		})
		return nil
	})
	g.Go(func() error {
		out.heights = call(ctx, l, "tide_heights", func(ctx context.Context) ([]domain.TimeSample, error) {
			return l.sources.Tides.TideHeights(ctx, stationID, date)
		})
		return nil
	})
	_ = g.Wait()
	return out
}
