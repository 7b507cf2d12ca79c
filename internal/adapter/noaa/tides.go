// Package noaa reads tide predictions and the tide station directory from
// the NOAA CO-OPS APIs.
package noaa

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/upstream"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

const (
	DefaultTidesURL    = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	DefaultStationsURL = "https://api.tidesandcurrents.noaa.gov/mdapi/prod/webapi/stations.json"

	applicationName = "fishing-log-enrichment"
	noaaTimeLayout  = "2006-01-02 15:04"
)

// TideClient implements domain.TideSource using CO-OPS predictions.
type TideClient struct {
	baseURL string
	http    *upstream.Client
}

// NewTideClient creates a tide prediction client.
func NewTideClient(baseURL string, client *upstream.Client) *TideClient {
	if baseURL == "" {
		baseURL = DefaultTidesURL
	}
	return &TideClient{baseURL: baseURL, http: client}
}

// TideExtremes returns the predicted highs and lows from the day before date
// through the day after, so events bracketing any time on date are present.
func (c *TideClient) TideExtremes(ctx context.Context, stationID, date string) ([]domain.TideExtreme, error) {
	params, err := c.params(stationID, date, "hilo")
	if err != nil {
		return nil, err
	}

	var resp predictionsResponse
	if err := c.http.GetJSON(ctx, c.baseURL, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	out := make([]domain.TideExtreme, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		t, h, ok := p.parse()
		if !ok {
			continue
		}
		kind := domain.ExtremeLow
		if strings.HasPrefix(p.Type, "H") {
			kind = domain.ExtremeHigh
		}
		out = append(out, domain.TideExtreme{Time: t, Height: h, Kind: kind})
	}
	return out, nil
}

// TideHeights returns the 6-minute predicted height series over the same
// window as TideExtremes. Subordinate stations publish no such series and
// yield an error.
func (c *TideClient) TideHeights(ctx context.Context, stationID, date string) ([]domain.TimeSample, error) {
	params, err := c.params(stationID, date, "6")
	if err != nil {
		return nil, err
	}

	var resp predictionsResponse
	if err := c.http.GetJSON(ctx, c.baseURL, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	out := make([]domain.TimeSample, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		t, h, ok := p.parse()
		if !ok {
			continue
		}
		out = append(out, domain.TimeSample{Time: t, Value: h})
	}
	return out, nil
}

func (c *TideClient) params(stationID, date, interval string) (url.Values, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	return url.Values{
		"begin_date":  {day.AddDate(0, 0, -1).Format("20060102")},
		"end_date":    {day.AddDate(0, 0, 1).Format("20060102")},
		"station":     {stationID},
		"product":     {"predictions"},
		"datum":       {"MLLW"},
		"time_zone":   {"gmt"},
		"interval":    {interval},
		"units":       {"english"},
		"format":      {"json"},
		"application": {applicationName},
	}, nil
}

// CO-OPS response types. Heights arrive as strings.

type predictionsResponse struct {
	Predictions []prediction `json:"predictions"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r predictionsResponse) err() error {
	if r.Error != nil {
		return fmt.Errorf("%w: noaa: %s", domain.ErrUpstreamUnavailable, r.Error.Message)
	}
	return nil
}

type prediction struct {
	Time  string `json:"t"`
	Value string `json:"v"`
	Type  string `json:"type,omitempty"`
}

func (p prediction) parse() (time.Time, float64, bool) {
	t, err := time.ParseInLocation(noaaTimeLayout, p.Time, time.UTC)
	if err != nil {
		return time.Time{}, 0, false
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
	if err != nil {
		return time.Time{}, 0, false
	}
	return t, h, true
}
