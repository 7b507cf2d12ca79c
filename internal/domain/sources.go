package domain

import "context"

// AstronomySource looks up the daily sun and moon events for a location.
// date is "YYYY-MM-DD".
type AstronomySource interface {
	Astronomy(ctx context.Context, lat, lon float64, date string) (Astronomy, error)
}

// PressureSource returns the hourly surface pressure series (hPa) covering
// date, plus enough of the previous day to look three hours back.
type PressureSource interface {
	HourlyPressure(ctx context.Context, lat, lon float64, date string) ([]TimeSample, error)
}

// HourlyWeather holds parallel hourly series for one location and day.
type HourlyWeather struct {
	Temperature []TimeSample // °F
	Code        []TimeSample // WMO weather code
}

// WeatherSource returns the hourly temperature and weather code series for date.
type WeatherSource interface {
	HourlyWeather(ctx context.Context, lat, lon float64, date string) (HourlyWeather, error)
}

// TideSource returns predictions for one station and day. The two series are
// independently retrievable; a station may publish events but no heights.
type TideSource interface {
	TideExtremes(ctx context.Context, stationID, date string) ([]TideExtreme, error)
	TideHeights(ctx context.Context, stationID, date string) ([]TimeSample, error)
}

// StationDirectory lists tide reference stations. It is read once at startup.
type StationDirectory interface {
	Stations(ctx context.Context) ([]Station, error)
}
