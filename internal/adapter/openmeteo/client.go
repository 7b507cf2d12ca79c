// Package openmeteo reads historical hourly pressure and weather from the
// Open-Meteo archive API.
package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/upstream"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// DefaultArchiveURL is the public Open-Meteo historical weather endpoint.
const DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

const hourLayout = "2006-01-02T15:04"

// Client implements domain.PressureSource and domain.WeatherSource.
// Hourly timestamps are requested and parsed in loc, the zone catch times
// are recorded in, so a record's date selects the right local day.
type Client struct {
	baseURL string
	loc     *time.Location
	http    *upstream.Client
}

// NewClient creates an archive client.
func NewClient(baseURL string, loc *time.Location, client *upstream.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultArchiveURL
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{baseURL: baseURL, loc: loc, http: client}
}

// HourlyPressure returns surface pressure in hPa for the day before date
// through date, so a reading three hours before an early catch exists.
func (c *Client) HourlyPressure(ctx context.Context, lat, lon float64, date string) ([]domain.TimeSample, error) {
	start, err := domain.PreviousDate(date)
	if err != nil {
		return nil, err
	}

	var resp archiveResponse
	if err := c.http.GetJSON(ctx, c.baseURL, c.params(lat, lon, start, date, "surface_pressure"), &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return c.series(resp.Hourly.Time, resp.Hourly.SurfacePressure), nil
}

// HourlyWeather returns air temperature in °F and WMO weather codes for date.
func (c *Client) HourlyWeather(ctx context.Context, lat, lon float64, date string) (domain.HourlyWeather, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return domain.HourlyWeather{}, fmt.Errorf("parse date %q: %w", date, err)
	}

	params := c.params(lat, lon, date, date, "temperature_2m,weathercode")
	params.Set("temperature_unit", "fahrenheit")

	var resp archiveResponse
	if err := c.http.GetJSON(ctx, c.baseURL, params, &resp); err != nil {
		return domain.HourlyWeather{}, err
	}
	if err := resp.err(); err != nil {
		return domain.HourlyWeather{}, err
	}

	return domain.HourlyWeather{
		Temperature: c.series(resp.Hourly.Time, resp.Hourly.Temperature2m),
		Code:        c.series(resp.Hourly.Time, resp.Hourly.WeatherCode),
	}, nil
}

func (c *Client) params(lat, lon float64, start, end, hourly string) url.Values {
	return url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', 4, 64)},
		"start_date": {start},
		"end_date":   {end},
		"hourly":     {hourly},
		"timezone":   {c.loc.String()},
	}
}

// series zips parallel time/value arrays, dropping hours with no value.
func (c *Client) series(times []string, values []*float64) []domain.TimeSample {
	n := min(len(times), len(values))
	out := make([]domain.TimeSample, 0, n)
	for i := range n {
		if values[i] == nil {
			continue
		}
		t, err := time.ParseInLocation(hourLayout, times[i], c.loc)
		if err != nil {
			continue
		}
		out = append(out, domain.TimeSample{Time: t, Value: *values[i]})
	}
	return out
}

// Open-Meteo response types. Missing hours are JSON null.

type archiveResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
	Hourly struct {
		Time            []string   `json:"time"`
		SurfacePressure []*float64 `json:"surface_pressure"`
		Temperature2m   []*float64 `json:"temperature_2m"`
		WeatherCode     []*float64 `json:"weathercode"`
	} `json:"hourly"`
}

func (r archiveResponse) err() error {
	if r.Error {
		return fmt.Errorf("%w: open-meteo: %s", domain.ErrUpstreamUnavailable, r.Reason)
	}
	return nil
}
