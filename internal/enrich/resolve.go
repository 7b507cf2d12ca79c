package enrich

import (
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// pressureLookback is how far before the catch the previous pressure
// reading is sampled.
const pressureLookback = 3 * time.Hour

type astronomyFields struct {
	sunrise, sunset, moonrise, moonset, moonPhase *string
}

func resolveAstronomy(res domain.Result[domain.Astronomy]) astronomyFields {
	a, ok := res.Get()
	if !ok {
		return astronomyFields{}
	}
	var f astronomyFields
	f.sunrise, f.sunset, f.moonrise, f.moonset, f.moonPhase = a.Fields()
	return f
}

// resolvePressure samples the readings at the catch and three hours earlier.
func resolvePressure(res domain.Result[[]domain.TimeSample], catchAt time.Time) (current, previous *float64) {
	samples, ok := res.Get()
	if !ok {
		return nil, nil
	}
	if v, ok := domain.NearestSample(samples, catchAt); ok {
		current = domain.Ptr(v)
	}
	if v, ok := domain.NearestSample(samples, catchAt.Add(-pressureLookback)); ok {
		previous = domain.Ptr(v)
	}
	return current, previous
}

// resolveWeather samples temperature, rounded to a whole degree, and the
// weather condition nearest the catch.
func resolveWeather(res domain.Result[domain.HourlyWeather], catchAt time.Time) (temp *float64, condition *string) {
	hw, ok := res.Get()
	if !ok {
		return nil, nil
	}
	if v, ok := domain.NearestSample(hw.Temperature, catchAt); ok && !math.IsNaN(v) {
		temp = domain.Ptr(math.Round(v))
	}
	condition = domain.WeatherDescriptionFromSample(domain.NearestSample(hw.Code, catchAt))
	return temp, condition
}

func resolveTide(series tideSeries, catchAt time.Time) (domain.TideReading, bool) {
	return domain.ClassifyTide(series.input(), catchAt)
}

// manualString returns a trimmed manual value, or nil when it is blank.
func manualString(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return domain.Ptr(strings.TrimSpace(*s))
}

// manualStage returns a recognised manual tide stage, or nil.
func manualStage(s *domain.TideStage) *domain.TideStage {
	if s == nil {
		return nil
	}
	stage, ok := domain.ParseTideStage(string(*s))
	if !ok {
		return nil
	}
	return &stage
}

func manualFloat(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	return domain.Ptr(*v)
}

func firstNonNil[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
