package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestEnrich_AllSources(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})

	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "06:20"))

	want := domain.EnvironmentalContext{
		Sunrise:           domain.Ptr("05:08"),
		Sunset:            domain.Ptr("20:22"),
		Moonset:           domain.Ptr("03:40"),
		MoonPhase:         domain.Ptr("Waxing Gibbous"),
		BarometricCurrent: domain.Ptr(1012.0),
		BarometricPrev3h:  domain.Ptr(1011.0),
		BarometricTrend:   domain.Ptr(domain.PressureRising),
		WeatherTemp:       domain.Ptr(62.0),
		WeatherCondition:  domain.Ptr("Rain"),
		TideStationID:     domain.Ptr("8447930"),
		TideStage:         domain.Ptr(domain.TideRising),
		TideHeightFt:      domain.Ptr(5.0 + 1.0/3.0),
		TideRateFtPerHour: domain.Ptr(1.0),
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Enrich() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, int32(1), h.sources.astronomyCalls.Load())
	assert.Equal(t, int32(1), h.sources.pressureCalls.Load())
	assert.Equal(t, int32(1), h.sources.weatherCalls.Load())
	assert.Equal(t, int32(1), h.sources.extremeCalls.Load())
	assert.Equal(t, int32(1), h.sources.heightCalls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RecordsEnriched))
}

func TestEnrich_ManualOverrides(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})

	rec := record("2025-06-14", "06:20")
	rec.Env = domain.EnvironmentalContext{
		TideStage:         domain.Ptr(domain.TideStage("slack")),
		MoonPhase:         domain.Ptr("Full Moon"),
		BarometricCurrent: domain.Ptr(1020.0),
		BarometricPrev3h:  domain.Ptr(1021.0),
		WeatherTemp:       domain.Ptr(70.0),
		WeatherCondition:  domain.Ptr("Sunny"),
	}

	got := h.enricher.Enrich(context.Background(), rec)

	assert.Equal(t, domain.Ptr(domain.TideSlack), got.TideStage)
	require.NotNil(t, got.TideHeightFt, "computed height is recorded alongside a manual stage")
	assert.InDelta(t, 5.3333, *got.TideHeightFt, 1e-3)
	assert.Equal(t, domain.Ptr(1.0), got.TideRateFtPerHour)
	assert.Equal(t, domain.Ptr("8447930"), got.TideStationID)

	assert.Equal(t, domain.Ptr("Full Moon"), got.MoonPhase)
	assert.Equal(t, domain.Ptr("05:08"), got.Sunrise)

	assert.Equal(t, domain.Ptr(1020.0), got.BarometricCurrent)
	assert.Equal(t, domain.Ptr(1021.0), got.BarometricPrev3h)
	assert.Equal(t, domain.Ptr(domain.PressureFalling), got.BarometricTrend)

	assert.Equal(t, domain.Ptr(70.0), got.WeatherTemp)
	assert.Equal(t, domain.Ptr("Clear"), got.WeatherCondition)

	assert.Zero(t, h.sources.pressureCalls.Load(), "both manual readings present")
	assert.Zero(t, h.sources.weatherCalls.Load(), "temperature and condition both manual")
}

func TestEnrich_PartialManualPressure(t *testing.T) {
	h := newHarness(t, Options{}, nil)

	rec := record("2025-06-14", "06:20")
	rec.Env.BarometricCurrent = domain.Ptr(1011.2)

	got := h.enricher.Enrich(context.Background(), rec)

	assert.Equal(t, int32(1), h.sources.pressureCalls.Load())
	assert.Equal(t, domain.Ptr(1011.2), got.BarometricCurrent)
	assert.Equal(t, domain.Ptr(1011.0), got.BarometricPrev3h)
	assert.Equal(t, domain.Ptr(domain.PressureSteady), got.BarometricTrend)
}

func TestEnrich_UpstreamFailuresDegradeIndependently(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})
	h.sources.astronomyErr = errBoom
	h.sources.pressureErr = errBoom

	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "06:20"))

	assert.Nil(t, got.Sunrise)
	assert.Nil(t, got.Sunset)
	assert.Nil(t, got.MoonPhase)
	assert.Nil(t, got.BarometricCurrent)
	assert.Nil(t, got.BarometricPrev3h)
	assert.Nil(t, got.BarometricTrend)

	assert.Equal(t, domain.Ptr(62.0), got.WeatherTemp)
	assert.Equal(t, domain.Ptr(domain.TideRising), got.TideStage)
}

func TestEnrich_SparseTideFallback(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})
	h.sources.heightsErr = errBoom

	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "06:00"))

	assert.Equal(t, domain.Ptr(domain.TideRising), got.TideStage)
	require.NotNil(t, got.TideHeightFt)
	assert.InDelta(t, 3.5, *got.TideHeightFt, 1e-9)
	assert.InDelta(t, 1.0, *got.TideRateFtPerHour, 1e-9)
}

func TestEnrich_StationWithoutTideData(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})
	h.sources.heightsErr = errBoom
	h.sources.extremesErr = errBoom

	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "06:20"))

	assert.Equal(t, domain.Ptr("8447930"), got.TideStationID)
	assert.Nil(t, got.TideStage)
	assert.Nil(t, got.TideHeightFt)
	assert.Nil(t, got.TideRateFtPerHour)
}

func TestEnrich_EmptyStationIndex(t *testing.T) {
	h := newHarness(t, Options{}, nil)

	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "06:20"))

	assert.Nil(t, got.TideStationID)
	assert.Nil(t, got.TideStage)
	assert.Zero(t, h.sources.extremeCalls.Load())
	assert.Zero(t, h.sources.heightCalls.Load())
	assert.NotNil(t, got.BarometricCurrent)
}

func TestEnrich_NoCoordinates(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})

	rec := record("2025-06-14", "06:20")
	rec.Latitude = nil
	rec.Env.BarometricCurrent = domain.Ptr(1015.0)
	rec.Env.BarometricPrev3h = domain.Ptr(1013.0)
	rec.Env.TideStage = domain.Ptr(domain.TideDropping)

	got := h.enricher.Enrich(context.Background(), rec)

	assert.Equal(t, domain.EnvironmentalContext{
		BarometricCurrent: domain.Ptr(1015.0),
		BarometricPrev3h:  domain.Ptr(1013.0),
		BarometricTrend:   domain.Ptr(domain.PressureRising),
		TideStage:         domain.Ptr(domain.TideDropping),
	}, got)
	assert.Zero(t, h.sources.astronomyCalls.Load())
	assert.Zero(t, h.sources.pressureCalls.Load())
}

func TestEnrich_UpstreamTimeout(t *testing.T) {
	h := newHarness(t, Options{UpstreamTimeout: 50 * time.Millisecond}, []domain.Station{woodsHole})
	h.sources.pressureDelay = 5 * time.Second

	start := time.Now()
	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "06:20"))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Nil(t, got.BarometricCurrent)
	assert.Nil(t, got.BarometricTrend)
	assert.NotNil(t, got.TideStage)
}

func TestEnrich_CatchTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	h := newHarness(t, Options{Location: loc}, nil)

	// 02:20 EDT is 06:20 UTC.
	got := h.enricher.Enrich(context.Background(), record("2025-06-14", "02:20"))

	assert.Equal(t, domain.Ptr(1012.0), got.BarometricCurrent)
	assert.Equal(t, domain.Ptr(1011.0), got.BarometricPrev3h)
}

// rendezvousTides only succeeds when both tide requests are in flight at
// the same time.
type rendezvousTides struct {
	extremesStarted chan struct{}
	heightsStarted  chan struct{}
}

func (r *rendezvousTides) TideExtremes(context.Context, string, string) ([]domain.TideExtreme, error) {
	close(r.extremesStarted)
	select {
	case <-r.heightsStarted:
		return []domain.TideExtreme{}, nil
	case <-time.After(2 * time.Second):
		return nil, errors.New("heights request never started")
	}
}

func (r *rendezvousTides) TideHeights(context.Context, string, string) ([]domain.TimeSample, error) {
	close(r.heightsStarted)
	select {
	case <-r.extremesStarted:
		return []domain.TimeSample{}, nil
	case <-time.After(2 * time.Second):
		return nil, errors.New("extremes request never started")
	}
}

func TestDirectLoader_TidePairFetchedConcurrently(t *testing.T) {
	tides := &rendezvousTides{extremesStarted: make(chan struct{}), heightsStarted: make(chan struct{})}
	l := &directLoader{sources: Sources{Tides: tides}, logger: discardLogger()}

	got := l.tides(context.Background(), "8447930", "2025-06-14")

	require.NoError(t, got.extremes.Err())
	require.NoError(t, got.heights.Err())
}

func TestDirectLoader_DisabledSources(t *testing.T) {
	l := &directLoader{logger: discardLogger()}
	ctx := context.Background()

	assert.ErrorIs(t, l.astronomy(ctx, 1, 2, "2025-06-14").Err(), errSourceDisabled)
	assert.ErrorIs(t, l.pressure(ctx, 1, 2, "2025-06-14").Err(), errSourceDisabled)
	assert.ErrorIs(t, l.weather(ctx, 1, 2, "2025-06-14").Err(), errSourceDisabled)
	assert.IsType(t, domain.Unavailable{}, l.tides(ctx, "x", "2025-06-14").input())
}

func TestInsert_Success(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})

	got, err := h.enricher.Insert(context.Background(), record("2025-06-14", "06:20"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, h.clock.Now().UTC(), got.CreatedAt)
	assert.Equal(t, domain.Ptr("8447930"), got.Env.TideStationID)

	stored := h.store.get(1)
	assert.Equal(t, got.Env, stored.Env)

	require.Len(t, h.publisher.events, 1)
	ev := h.publisher.events[0]
	assert.Equal(t, domain.EventInserted, ev.Kind)
	assert.Equal(t, int64(1), ev.RecordID)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EventsPublished))
}

func TestInsert_ValidationFailure(t *testing.T) {
	h := newHarness(t, Options{}, []domain.Station{woodsHole})

	rec := record("2025-06-14", "")
	rec.Title = " "
	_, err := h.enricher.Insert(context.Background(), rec)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"title", "time"}, verr.Fields)

	assert.Zero(t, h.sources.astronomyCalls.Load(), "no enrichment for rejected records")
	assert.Empty(t, h.store.records)
	assert.Empty(t, h.publisher.events)
}

func TestInsert_StorageFailure(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.store.insertErr = errors.New("disk full")

	_, err := h.enricher.Insert(context.Background(), record("2025-06-14", "06:20"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, h.publisher.events)
}

func TestInsert_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.publisher.err = errBoom

	got, err := h.enricher.Insert(context.Background(), record("2025-06-14", "06:20"))

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.PublishErrors))
}

func TestCheckReadiness(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	assert.NoError(t, h.enricher.CheckReadiness(context.Background()))
}
