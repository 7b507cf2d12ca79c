package domain

import (
	"slices"
	"time"
)

// Interpolation is a linearly interpolated value with its instantaneous slope.
type Interpolation struct {
	Value       float64
	RatePerHour float64
}

// NearestSample returns the value whose timestamp is closest to target.
// The input need not be sorted; the first sample encountered wins ties.
func NearestSample(series []TimeSample, target time.Time) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	best := 0
	bestDiff := absDuration(series[0].Time.Sub(target))
	for i := 1; i < len(series); i++ {
		if d := absDuration(series[i].Time.Sub(target)); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return series[best].Value, true
}

// InterpolateSeries linearly interpolates series at target. Targets outside
// the series range are extrapolated from the last adjacent pair. It reports
// false when fewer than two samples are supplied.
func InterpolateSeries(series []TimeSample, target time.Time) (Interpolation, bool) {
	if len(series) < 2 {
		return Interpolation{}, false
	}

	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b TimeSample) int {
		return a.Time.Compare(b.Time)
	})

	s1, s2 := sorted[len(sorted)-2], sorted[len(sorted)-1]
	for i := 0; i < len(sorted)-1; i++ {
		if !sorted[i].Time.After(target) && !target.After(sorted[i+1].Time) {
			s1, s2 = sorted[i], sorted[i+1]
			break
		}
	}

	return linear(s1.Time, s1.Value, s2.Time, s2.Value, target), true
}

// linear interpolates between (t1, v1) and (t2, v2). A zero interval yields
// v1 with a zero rate.
func linear(t1 time.Time, v1 float64, t2 time.Time, v2 float64, target time.Time) Interpolation {
	span := t2.Sub(t1)
	if span == 0 {
		return Interpolation{Value: v1}
	}

	alpha := float64(target.Sub(t1)) / float64(span)
	return Interpolation{
		Value:       v1 + alpha*(v2-v1),
		RatePerHour: (v2 - v1) / span.Hours(),
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
