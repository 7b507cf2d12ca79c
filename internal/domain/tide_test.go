package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTideInput(t *testing.T) {
	dense := hourly(1, 2)
	events := []TideExtreme{
		{Time: t0, Height: 2, Kind: ExtremeLow},
		{Time: t0.Add(6 * time.Hour), Height: 8, Kind: ExtremeHigh},
	}

	assert.IsType(t, DenseSeries{}, SelectTideInput(dense, events))
	assert.IsType(t, SparseEvents{}, SelectTideInput(hourly(1), events))
	assert.IsType(t, SparseEvents{}, SelectTideInput(nil, events))
	assert.IsType(t, Unavailable{}, SelectTideInput(hourly(1), events[:1]))
	assert.IsType(t, Unavailable{}, SelectTideInput(nil, nil))
}

func TestClassifyTide_Dense(t *testing.T) {
	got, ok := ClassifyTide(SelectTideInput(hourly(5.0, 6.0), nil), t0.Add(30*time.Minute))
	require.True(t, ok)

	assert.Equal(t, TideRising, got.Stage)
	assert.InDelta(t, 5.5, got.HeightFt, 1e-9)
	assert.InDelta(t, 1.0, got.RateFtPerHr, 1e-9)
	assert.True(t, got.Dense)
	assert.Nil(t, got.NearestExtreme)
}

func TestClassifyTide_DenseStages(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   TideStage
	}{
		{"rising", []float64{1.0, 2.0}, TideRising},
		{"dropping", []float64{2.0, 1.0}, TideDropping},
		{"slack positive", []float64{3.0, 3.05}, TideSlack},
		{"slack negative", []float64{3.0, 2.95}, TideSlack},
		{"flat", []float64{3.0, 3.0}, TideSlack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyTide(DenseSeries{Samples: hourly(tt.values...)}, t0.Add(20*time.Minute))
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Stage)
		})
	}
}

func TestClassifyTide_DenseIgnoresExtremesForStage(t *testing.T) {
	// The nearest event is a high 5 minutes away, which would be slack in
	// sparse mode; dense mode classifies from the rate alone.
	events := []TideExtreme{
		{Time: t0.Add(35 * time.Minute), Height: 6, Kind: ExtremeHigh},
		{Time: t0.Add(7 * time.Hour), Height: 1, Kind: ExtremeLow},
	}
	got, ok := ClassifyTide(DenseSeries{Samples: hourly(5.0, 6.0), Extremes: events}, t0.Add(30*time.Minute))
	require.True(t, ok)

	assert.Equal(t, TideRising, got.Stage)
	require.NotNil(t, got.NearestExtreme)
	assert.Equal(t, ExtremeHigh, got.NearestExtreme.Kind)
}

func sparseEvents() []TideExtreme {
	return []TideExtreme{
		{Time: t0.Add(6 * time.Hour), Height: 8.0, Kind: ExtremeHigh},
		{Time: t0, Height: 2.0, Kind: ExtremeLow},
	}
}

func TestClassifyTide_SparseRising(t *testing.T) {
	got, ok := ClassifyTide(SparseEvents{Extremes: sparseEvents()}, t0.Add(3*time.Hour))
	require.True(t, ok)

	assert.Equal(t, TideRising, got.Stage)
	assert.InDelta(t, 5.0, got.HeightFt, 1e-9)
	assert.InDelta(t, 1.0, got.RateFtPerHr, 1e-9)
	assert.False(t, got.Dense)
}

func TestClassifyTide_SparseSlackNearExtreme(t *testing.T) {
	for _, offset := range []time.Duration{0, 10 * time.Minute, 20 * time.Minute, 6*time.Hour - 15*time.Minute} {
		got, ok := ClassifyTide(SparseEvents{Extremes: sparseEvents()}, t0.Add(offset))
		require.True(t, ok)
		assert.Equal(t, TideSlack, got.Stage, "offset %s", offset)
	}

	got, ok := ClassifyTide(SparseEvents{Extremes: sparseEvents()}, t0.Add(21*time.Minute))
	require.True(t, ok)
	assert.Equal(t, TideRising, got.Stage)
}

func TestClassifyTide_SparseDropping(t *testing.T) {
	events := []TideExtreme{
		{Time: t0, Height: 9.0, Kind: ExtremeHigh},
		{Time: t0.Add(6 * time.Hour), Height: 1.0, Kind: ExtremeLow},
		{Time: t0.Add(12 * time.Hour), Height: 8.5, Kind: ExtremeHigh},
	}
	got, ok := ClassifyTide(SparseEvents{Extremes: events}, t0.Add(2*time.Hour))
	require.True(t, ok)
	assert.Equal(t, TideDropping, got.Stage)

	got, ok = ClassifyTide(SparseEvents{Extremes: events}, t0.Add(9*time.Hour))
	require.True(t, ok)
	assert.Equal(t, TideRising, got.Stage)
}

func TestClassifyTide_SparseSameKindIsUnknown(t *testing.T) {
	events := []TideExtreme{
		{Time: t0, Height: 7.0, Kind: ExtremeHigh},
		{Time: t0.Add(6 * time.Hour), Height: 8.0, Kind: ExtremeHigh},
	}
	got, ok := ClassifyTide(SparseEvents{Extremes: events}, t0.Add(3*time.Hour))
	require.True(t, ok)
	assert.Equal(t, TideUnknown, got.Stage)
}

func TestClassifyTide_SparseOutsideRange(t *testing.T) {
	events := []TideExtreme{
		{Time: t0, Height: 2.0, Kind: ExtremeLow},
		{Time: t0.Add(6 * time.Hour), Height: 8.0, Kind: ExtremeHigh},
		{Time: t0.Add(12 * time.Hour), Height: 1.0, Kind: ExtremeLow},
	}

	before, ok := ClassifyTide(SparseEvents{Extremes: events}, t0.Add(-2*time.Hour))
	require.True(t, ok)
	assert.Equal(t, TideRising, before.Stage)
	assert.InDelta(t, 0.0, before.HeightFt, 1e-9)

	after, ok := ClassifyTide(SparseEvents{Extremes: events}, t0.Add(14*time.Hour))
	require.True(t, ok)
	assert.Equal(t, TideDropping, after.Stage)
	assert.InDelta(t, -1.333333, after.HeightFt, 1e-6)
}

func TestClassifyTide_SparseCollapsedTailAborts(t *testing.T) {
	events := []TideExtreme{
		{Time: t0, Height: 2.0, Kind: ExtremeLow},
		{Time: t0, Height: 8.0, Kind: ExtremeHigh},
	}
	_, ok := ClassifyTide(SparseEvents{Extremes: events}, t0.Add(time.Hour))
	assert.False(t, ok)
}

func TestClassifyTide_Unavailable(t *testing.T) {
	_, ok := ClassifyTide(Unavailable{}, t0)
	assert.False(t, ok)

	_, ok = ClassifyTide(SparseEvents{Extremes: sparseEvents()[:1]}, t0)
	assert.False(t, ok)
}
