package domain

import (
	"math"
	"strings"
)

// DefaultBaroDeadband is the pressure difference, in hPa, within which the
// three-hour trend is reported as Steady.
const DefaultBaroDeadband = 0.5

// BaroTrend classifies current against previous with the default deadband.
func BaroTrend(current, previous *float64) *PressureTrend {
	return BaroTrendWithin(current, previous, DefaultBaroDeadband)
}

// BaroTrendWithin classifies current against previous. It returns nil when
// either reading is missing or not a number.
func BaroTrendWithin(current, previous *float64, deadband float64) *PressureTrend {
	if current == nil || previous == nil || math.IsNaN(*current) || math.IsNaN(*previous) {
		return nil
	}

	diff := *current - *previous
	switch {
	case diff > deadband:
		return Ptr(PressureRising)
	case diff < -deadband:
		return Ptr(PressureFalling)
	default:
		return Ptr(PressureSteady)
	}
}

// Weather condition descriptions.
const (
	ConditionClear                = "Clear"
	ConditionPartlyCloudy         = "Partly Cloudy"
	ConditionOvercast             = "Overcast"
	ConditionFog                  = "Fog"
	ConditionDrizzle              = "Drizzle"
	ConditionFreezingDrizzle      = "Freezing Drizzle"
	ConditionRain                 = "Rain"
	ConditionFreezingRain         = "Freezing Rain"
	ConditionSnow                 = "Snow"
	ConditionSnowGrains           = "Snow Grains"
	ConditionRainShowers          = "Rain Showers"
	ConditionSnowShowers          = "Snow Showers"
	ConditionThunderstorm         = "Thunderstorm"
	ConditionThunderstormWithHail = "Thunderstorm with Hail"
	ConditionUnknown              = "Unknown"
)

var wmoConditions = map[int]string{
	0:  ConditionClear,
	1:  ConditionPartlyCloudy,
	2:  ConditionPartlyCloudy,
	3:  ConditionOvercast,
	45: ConditionFog,
	48: ConditionFog,
	51: ConditionDrizzle,
	53: ConditionDrizzle,
	55: ConditionDrizzle,
	56: ConditionFreezingDrizzle,
	57: ConditionFreezingDrizzle,
	61: ConditionRain,
	63: ConditionRain,
	65: ConditionRain,
	66: ConditionFreezingRain,
	67: ConditionFreezingRain,
	71: ConditionSnow,
	73: ConditionSnow,
	75: ConditionSnow,
	77: ConditionSnowGrains,
	80: ConditionRainShowers,
	81: ConditionRainShowers,
	82: ConditionRainShowers,
	85: ConditionSnowShowers,
	86: ConditionSnowShowers,
	95: ConditionThunderstorm,
	96: ConditionThunderstormWithHail,
	99: ConditionThunderstormWithHail,
}

// WeatherDescription maps a WMO weather code to a condition. A nil code
// yields nil; a code outside the known set yields "Unknown".
func WeatherDescription(code *int) *string {
	if code == nil {
		return nil
	}
	if desc, ok := wmoConditions[*code]; ok {
		return Ptr(desc)
	}
	return Ptr(ConditionUnknown)
}

// WeatherDescriptionFromSample maps a sampled float code, as carried in a
// TimeSample, to a condition.
func WeatherDescriptionFromSample(v float64, ok bool) *string {
	if !ok || math.IsNaN(v) {
		return nil
	}
	code := int(math.Round(v))
	return WeatherDescription(&code)
}

var sunnySynonyms = map[string]bool{
	"sunny":        true,
	"mostly sunny": true,
	"clear":        true,
	"clear sky":    true,
	"clear skies":  true,
	"mainly clear": true,
	"fair":         true,
}

// NormalizeCondition canonicalises a provider or user condition string.
// Sunny synonyms become "Clear"; empty input yields nil.
func NormalizeCondition(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if sunnySynonyms[strings.ToLower(trimmed)] {
		return Ptr(ConditionClear)
	}
	return Ptr(trimmed)
}
