// Package astronomy reads daily sun and moon events from the ipgeolocation
// astronomy API.
package astronomy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/upstream"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// DefaultURL is the public ipgeolocation astronomy endpoint.
const DefaultURL = "https://api.ipgeolocation.io/astronomy"

// Client implements domain.AstronomySource.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
}

// NewClient creates an astronomy client.
func NewClient(baseURL, apiKey string, client *upstream.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: client}
}

// Astronomy returns the raw provider values. "-:-" and similar placeholders
// are left for the domain layer to normalise.
func (c *Client) Astronomy(ctx context.Context, lat, lon float64, date string) (domain.Astronomy, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return domain.Astronomy{}, fmt.Errorf("parse date %q: %w", date, err)
	}

	params := url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', 4, 64)},
		"long": {strconv.FormatFloat(lon, 'f', 4, 64)},
		"date": {date},
	}
	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}

	var resp response
	if err := c.http.GetJSON(ctx, c.baseURL, params, &resp); err != nil {
		return domain.Astronomy{}, err
	}
	if resp.Message != "" {
		return domain.Astronomy{}, fmt.Errorf("%w: astronomy: %s", domain.ErrUpstreamUnavailable, resp.Message)
	}

	return domain.Astronomy{
		Sunrise:   resp.Sunrise,
		Sunset:    resp.Sunset,
		Moonrise:  resp.Moonrise,
		Moonset:   resp.Moonset,
		MoonPhase: resp.MoonPhase,
	}, nil
}

type response struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	Moonrise  string `json:"moonrise"`
	Moonset   string `json:"moonset"`
	MoonPhase string `json:"moon_phase"`
	Message   string `json:"message"`
}
