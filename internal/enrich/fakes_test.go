package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
	"github.com/jonboulle/clockwork"
)

var (
	catchDay = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	errBoom  = errors.New("boom")
)

func at(hour, minute int) time.Time {
	return catchDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fake sources ---

type fakeSources struct {
	astronomyCalls atomic.Int32
	pressureCalls  atomic.Int32
	weatherCalls   atomic.Int32
	extremeCalls   atomic.Int32
	heightCalls    atomic.Int32

	astronomyErr error
	pressureErr  error
	weatherErr   error
	extremesErr  error
	heightsErr   error

	// pressureDelay simulates a slow provider; it honours ctx.
	pressureDelay time.Duration
}

func (f *fakeSources) Astronomy(_ context.Context, _, _ float64, _ string) (domain.Astronomy, error) {
	f.astronomyCalls.Add(1)
	if f.astronomyErr != nil {
		return domain.Astronomy{}, f.astronomyErr
	}
	return domain.Astronomy{
		Sunrise:   "05:08",
		Sunset:    "20:22",
		Moonrise:  "-:-",
		Moonset:   "03:40",
		MoonPhase: "WAXING_GIBBOUS",
	}, nil
}

func (f *fakeSources) HourlyPressure(ctx context.Context, _, _ float64, _ string) ([]domain.TimeSample, error) {
	f.pressureCalls.Add(1)
	if f.pressureDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.pressureDelay):
		}
	}
	if f.pressureErr != nil {
		return nil, f.pressureErr
	}
	return []domain.TimeSample{
		{Time: at(2, 0), Value: 1010.8},
		{Time: at(3, 0), Value: 1011.0},
		{Time: at(4, 0), Value: 1011.3},
		{Time: at(5, 0), Value: 1011.6},
		{Time: at(6, 0), Value: 1012.0},
		{Time: at(7, 0), Value: 1012.2},
	}, nil
}

func (f *fakeSources) HourlyWeather(_ context.Context, _, _ float64, _ string) (domain.HourlyWeather, error) {
	f.weatherCalls.Add(1)
	if f.weatherErr != nil {
		return domain.HourlyWeather{}, f.weatherErr
	}
	return domain.HourlyWeather{
		Temperature: []domain.TimeSample{{Time: at(6, 0), Value: 61.6}, {Time: at(7, 0), Value: 64.1}},
		Code:        []domain.TimeSample{{Time: at(6, 0), Value: 61}, {Time: at(7, 0), Value: 3}},
	}, nil
}

func (f *fakeSources) TideExtremes(_ context.Context, _, _ string) ([]domain.TideExtreme, error) {
	f.extremeCalls.Add(1)
	if f.extremesErr != nil {
		return nil, f.extremesErr
	}
	return []domain.TideExtreme{
		{Time: at(3, 0), Height: 0.5, Kind: domain.ExtremeLow},
		{Time: at(9, 0), Height: 6.5, Kind: domain.ExtremeHigh},
	}, nil
}

func (f *fakeSources) TideHeights(_ context.Context, _, _ string) ([]domain.TimeSample, error) {
	f.heightCalls.Add(1)
	if f.heightsErr != nil {
		return nil, f.heightsErr
	}
	return []domain.TimeSample{
		{Time: at(7, 0), Value: 6.0},
		{Time: at(6, 0), Value: 5.0},
	}, nil
}

func (f *fakeSources) sources() Sources {
	return Sources{Astronomy: f, Pressure: f, Weather: f, Tides: f}
}

// --- fake store ---

type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	records   map[int64]domain.FishingRecord
	insertErr error
	listErr   error
	updateErr error
	updates   int
}

func newFakeStore(recs ...domain.FishingRecord) *fakeStore {
	s := &fakeStore{records: make(map[int64]domain.FishingRecord)}
	for _, r := range recs {
		s.nextID++
		r.ID = s.nextID
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeStore) InsertRecord(_ context.Context, rec domain.FishingRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	rec.ID = s.nextID
	s.records[rec.ID] = rec
	return rec.ID, nil
}

func (s *fakeStore) ListForBackfill(_ context.Context, c domain.BackfillCriteria) ([]domain.FishingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.FishingRecord
	for _, r := range s.records {
		if c.Reprocess || r.Env.Missing(c.Group) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out, nil
}

func (s *fakeStore) UpdateEnvironment(_ context.Context, id int64, _ domain.FieldGroup, env domain.EnvironmentalContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	r := s.records[id]
	r.Env = env
	s.records[id] = r
	s.updates++
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) get(id int64) domain.FishingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

// --- fake publisher ---

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.EnrichmentEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, events ...domain.EnrichmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

// --- helpers ---

var woodsHole = domain.Station{ID: "8447930", Name: "Woods Hole", Lat: 41.5236, Lon: -70.6711, Region: "MA"}

func record(date, tod string) domain.FishingRecord {
	return domain.FishingRecord{
		Title:       "Striper run",
		Date:        date,
		Time:        tod,
		Latitude:    domain.Ptr(41.52),
		Longitude:   domain.Ptr(-70.67),
		CatchStatus: "caught",
	}
}

type harness struct {
	enricher  *Enricher
	sources   *fakeSources
	store     *fakeStore
	publisher *fakePublisher
	clock     *clockwork.FakeClock
	metrics   *observability.Metrics
}

func newHarness(t *testing.T, opts Options, stations []domain.Station, recs ...domain.FishingRecord) *harness {
	t.Helper()
	h := &harness{
		sources:   &fakeSources{},
		store:     newFakeStore(recs...),
		publisher: &fakePublisher{},
		clock:     clockwork.NewFakeClockAt(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)),
		metrics:   observability.NewMetricsForTesting(),
	}
	h.enricher = New(Deps{
		Sources:   h.sources.sources(),
		Stations:  domain.NewGeoIndex(stations),
		Store:     h.store,
		Publisher: h.publisher,
		Clock:     h.clock,
		Metrics:   h.metrics,
		Logger:    discardLogger(),
	}, opts)
	return h
}
