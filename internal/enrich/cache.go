package enrich

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
	"golang.org/x/sync/singleflight"
)

// memo computes each key at most once. Concurrent callers for the same key
// share one in-flight computation. Failed results are kept too, so one
// unreachable location is not retried on every row of a run.
type memo[T any] struct {
	mu      sync.Mutex
	results map[string]T
	flight  singleflight.Group
}

func newMemo[T any]() *memo[T] {
	return &memo[T]{results: make(map[string]T)}
}

// get returns the value for key and whether it was already cached.
func (m *memo[T]) get(key string, compute func() T) (T, bool) {
	m.mu.Lock()
	if v, ok := m.results[key]; ok {
		m.mu.Unlock()
		return v, true
	}
	m.mu.Unlock()

	v, _, _ := m.flight.Do(key, func() (any, error) {
		m.mu.Lock()
		if cached, ok := m.results[key]; ok {
			m.mu.Unlock()
			return cached, nil
		}
		m.mu.Unlock()

		v := compute()

		m.mu.Lock()
		m.results[key] = v
		m.mu.Unlock()
		return v, nil
	})
	return v.(T), false
}

func (m *memo[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// batchCache memoizes upstream series for one backfill run. It is never
// shared between runs and has no eviction.
type batchCache struct {
	inner   loader
	metrics *observability.Metrics

	astro    *memo[domain.Result[domain.Astronomy]]
	press    *memo[domain.Result[[]domain.TimeSample]]
	wx       *memo[domain.Result[domain.HourlyWeather]]
	tideData *memo[tideSeries]
}

func newBatchCache(inner loader, metrics *observability.Metrics) *batchCache {
	return &batchCache{
		inner:    inner,
		metrics:  metrics,
		astro:    newMemo[domain.Result[domain.Astronomy]](),
		press:    newMemo[domain.Result[[]domain.TimeSample]](),
		wx:       newMemo[domain.Result[domain.HourlyWeather]](),
		tideData: newMemo[tideSeries](),
	}
}

// locationKey rounds coordinates to 4 decimal places (about 11 m).
func locationKey(lat, lon float64, date string) string {
	return fmt.Sprintf("%.4f,%.4f|%s", lat, lon, date)
}

func (c *batchCache) record(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.BatchCache.WithLabelValues(kind, result).Inc()
}

func (c *batchCache) astronomy(ctx context.Context, lat, lon float64, date string) domain.Result[domain.Astronomy] {
	v, hit := c.astro.get(locationKey(lat, lon, date), func() domain.Result[domain.Astronomy] {
		return c.inner.astronomy(ctx, lat, lon, date)
	})
	c.record("astronomy", hit)
	return v
}

func (c *batchCache) pressure(ctx context.Context, lat, lon float64, date string) domain.Result[[]domain.TimeSample] {
	v, hit := c.press.get(locationKey(lat, lon, date), func() domain.Result[[]domain.TimeSample] {
		return c.inner.pressure(ctx, lat, lon, date)
	})
	c.record("pressure", hit)
	return v
}

func (c *batchCache) weather(ctx context.Context, lat, lon float64, date string) domain.Result[domain.HourlyWeather] {
	v, hit := c.wx.get(locationKey(lat, lon, date), func() domain.Result[domain.HourlyWeather] {
		return c.inner.weather(ctx, lat, lon, date)
	})
	c.record("weather", hit)
	return v
}

func (c *batchCache) tides(ctx context.Context, stationID, date string) tideSeries {
	v, hit := c.tideData.get(stationID+"|"+date, func() tideSeries {
		return c.inner.tides(ctx, stationID, date)
	})
	c.record("tide", hit)
	return v
}
