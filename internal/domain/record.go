package domain

import "time"

// TideStage is the direction of tidal water movement at catch time.
type TideStage string

const (
	TideRising   TideStage = "Rising"
	TideDropping TideStage = "Dropping"
	TideSlack    TideStage = "Slack"
	TideUnknown  TideStage = "Unknown"
)

// ParseTideStage accepts a stored or user-supplied stage, case-insensitively.
func ParseTideStage(s string) (TideStage, bool) {
	switch normalizeWord(s) {
	case "rising", "incoming", "flood":
		return TideRising, true
	case "dropping", "falling", "outgoing", "ebb":
		return TideDropping, true
	case "slack":
		return TideSlack, true
	case "unknown":
		return TideUnknown, true
	default:
		return "", false
	}
}

// PressureTrend is the three-hour barometric tendency.
type PressureTrend string

const (
	PressureRising  PressureTrend = "Rising"
	PressureFalling PressureTrend = "Falling"
	PressureSteady  PressureTrend = "Steady"
)

// ExtremeKind distinguishes a high tide from a low tide.
type ExtremeKind string

const (
	ExtremeHigh ExtremeKind = "H"
	ExtremeLow  ExtremeKind = "L"
)

// Station is a tide-prediction reference station.
type Station struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Region string  `json:"region,omitempty"`
}

// TimeSample is one point of a scalar time series.
type TimeSample struct {
	Time  time.Time
	Value float64
}

// TideExtreme is a predicted high or low water event.
type TideExtreme struct {
	Time   time.Time
	Height float64 // feet above MLLW
	Kind   ExtremeKind
}

// EnvironmentalContext holds the computed and manually supplied conditions
// attached to a fishing record. A nil field was not derivable.
type EnvironmentalContext struct {
	Sunrise   *string `json:"sunrise,omitempty"`
	Sunset    *string `json:"sunset,omitempty"`
	Moonrise  *string `json:"moonrise,omitempty"`
	Moonset   *string `json:"moonset,omitempty"`
	MoonPhase *string `json:"moon_phase,omitempty"`

	BarometricCurrent *float64       `json:"barometric_current,omitempty"`
	BarometricPrev3h  *float64       `json:"barometric_prev_3h,omitempty"`
	BarometricTrend   *PressureTrend `json:"barometric_trend,omitempty"`
	WeatherTemp       *float64       `json:"weather_temp,omitempty"`
	WeatherCondition  *string        `json:"weather_condition,omitempty"`
	TideStationID     *string        `json:"tide_station_id,omitempty"`
	TideStage         *TideStage     `json:"tide_stage,omitempty"`
	TideHeightFt      *float64       `json:"tide_height_ft,omitempty"`
	TideRateFtPerHour *float64       `json:"tide_rate_ft_per_hour,omitempty"`
}

// FishingRecord is a persisted fishing-trip log entry.
type FishingRecord struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"` // YYYY-MM-DD, local to the catch
	Time        string   `json:"time"` // HH:MM, local to the catch
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	AreaName    *string  `json:"area_name,omitempty"`
	CatchStatus string   `json:"catch_status"`

	// Env carries manual inputs on insert and the merged context once enriched.
	Env EnvironmentalContext `json:"environment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (r FishingRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// FieldGroup names a set of environmental columns that are backfilled together.
type FieldGroup string

const (
	GroupAstronomy  FieldGroup = "astronomy"
	GroupBarometric FieldGroup = "barometric"
	GroupTide       FieldGroup = "tide"
	GroupWeather    FieldGroup = "weather"
)

// AllGroups lists every backfillable field group in processing order.
var AllGroups = []FieldGroup{GroupAstronomy, GroupBarometric, GroupTide, GroupWeather}

// ParseFieldGroup validates a field group name.
func ParseFieldGroup(s string) (FieldGroup, bool) {
	for _, g := range AllGroups {
		if string(g) == normalizeWord(s) {
			return g, true
		}
	}
	return "", false
}

// BackfillCriteria selects stored records for a backfill run.
type BackfillCriteria struct {
	Group FieldGroup
	// Reprocess selects every record instead of only those missing a field
	// of Group.
	Reprocess bool
	// Limit caps the number of records scanned; zero means no limit.
	Limit int
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Missing reports whether any field belonging to g is nil.
func (e EnvironmentalContext) Missing(g FieldGroup) bool {
	switch g {
	case GroupAstronomy:
		return e.Sunrise == nil || e.Sunset == nil || e.Moonrise == nil || e.Moonset == nil || e.MoonPhase == nil
	case GroupBarometric:
		return e.BarometricCurrent == nil || e.BarometricPrev3h == nil || e.BarometricTrend == nil
	case GroupTide:
		return e.TideStationID == nil || e.TideStage == nil || e.TideHeightFt == nil || e.TideRateFtPerHour == nil
	case GroupWeather:
		return e.WeatherTemp == nil || e.WeatherCondition == nil
	default:
		return false
	}
}
