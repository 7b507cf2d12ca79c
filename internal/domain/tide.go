package domain

import (
	"math"
	"slices"
	"time"
)

const (
	// SlackRateFtPerHour is the rate magnitude below which dense-mode water
	// is considered slack.
	SlackRateFtPerHour = 0.1
	// SlackWindow is the distance from a high or low event within which
	// sparse-mode water is considered slack.
	SlackWindow = 20 * time.Minute
)

// TideInput is the single source a tide classification runs on. It is one of
// DenseSeries, SparseEvents or Unavailable.
type TideInput interface {
	tideInput()
}

// DenseSeries is a sub-hourly height series with optional high/low events
// kept for annotation.
type DenseSeries struct {
	Samples  []TimeSample
	Extremes []TideExtreme
}

// SparseEvents is a list of predicted high/low events with no height series.
type SparseEvents struct {
	Extremes []TideExtreme
}

// Unavailable means neither input has enough points to classify.
type Unavailable struct{}

func (DenseSeries) tideInput()  {}
func (SparseEvents) tideInput() {}
func (Unavailable) tideInput()  {}

// SelectTideInput picks the dense series when it has at least two samples,
// then the events when there are at least two, otherwise Unavailable.
func SelectTideInput(samples []TimeSample, extremes []TideExtreme) TideInput {
	switch {
	case len(samples) >= 2:
		return DenseSeries{Samples: samples, Extremes: extremes}
	case len(extremes) >= 2:
		return SparseEvents{Extremes: extremes}
	default:
		return Unavailable{}
	}
}

// TideReading is the classified state of the water at a target instant.
type TideReading struct {
	Stage       TideStage
	HeightFt    float64
	RateFtPerHr float64
	// NearestExtreme is informational and does not affect Stage.
	NearestExtreme *TideExtreme
	Dense          bool
}

// ClassifyTide classifies the tide at target. It reports false when the input
// cannot produce a reading.
func ClassifyTide(in TideInput, target time.Time) (TideReading, bool) {
	switch v := in.(type) {
	case DenseSeries:
		return classifyDense(v, target)
	case SparseEvents:
		return classifySparse(v.Extremes, target)
	default:
		return TideReading{}, false
	}
}

func classifyDense(in DenseSeries, target time.Time) (TideReading, bool) {
	interp, ok := InterpolateSeries(in.Samples, target)
	if !ok {
		return TideReading{}, false
	}

	stage := TideDropping
	switch {
	case math.Abs(interp.RatePerHour) < SlackRateFtPerHour:
		stage = TideSlack
	case interp.RatePerHour > 0:
		stage = TideRising
	}

	return TideReading{
		Stage:          stage,
		HeightFt:       interp.Value,
		RateFtPerHr:    interp.RatePerHour,
		NearestExtreme: nearestExtreme(in.Extremes, target),
		Dense:          true,
	}, true
}

func classifySparse(extremes []TideExtreme, target time.Time) (TideReading, bool) {
	if len(extremes) < 2 {
		return TideReading{}, false
	}

	sorted := slices.Clone(extremes)
	slices.SortStableFunc(sorted, func(a, b TideExtreme) int {
		return a.Time.Compare(b.Time)
	})

	var prev, next TideExtreme
	last := len(sorted) - 1
	switch {
	case target.Before(sorted[0].Time):
		prev, next = sorted[0], sorted[1]
	case target.After(sorted[last].Time):
		prev, next = sorted[last-1], sorted[last]
		if prev.Time.Equal(next.Time) {
			return TideReading{}, false
		}
	default:
		prev, next = sorted[last-1], sorted[last]
		for i := 0; i < last; i++ {
			if !sorted[i].Time.After(target) && !target.After(sorted[i+1].Time) {
				prev, next = sorted[i], sorted[i+1]
				break
			}
		}
	}

	interp := linear(prev.Time, prev.Height, next.Time, next.Height, target)

	var stage TideStage
	switch {
	case absDuration(target.Sub(prev.Time)) <= SlackWindow ||
		absDuration(next.Time.Sub(target)) <= SlackWindow:
		stage = TideSlack
	case prev.Kind == ExtremeLow && next.Kind == ExtremeHigh:
		stage = TideRising
	case prev.Kind == ExtremeHigh && next.Kind == ExtremeLow:
		stage = TideDropping
	default:
		stage = TideUnknown
	}

	return TideReading{
		Stage:          stage,
		HeightFt:       interp.Value,
		RateFtPerHr:    interp.RatePerHour,
		NearestExtreme: nearestExtreme(sorted, target),
	}, true
}

func nearestExtreme(extremes []TideExtreme, target time.Time) *TideExtreme {
	if len(extremes) == 0 {
		return nil
	}
	best := extremes[0]
	for _, e := range extremes[1:] {
		if absDuration(e.Time.Sub(target)) < absDuration(best.Time.Sub(target)) {
			best = e
		}
	}
	return &best
}
