package noaa

import (
	"context"
	"net/url"

	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/upstream"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// StationClient implements domain.StationDirectory over the CO-OPS metadata API.
type StationClient struct {
	url  string
	http *upstream.Client
}

// NewStationClient creates a station directory client.
func NewStationClient(stationsURL string, client *upstream.Client) *StationClient {
	if stationsURL == "" {
		stationsURL = DefaultStationsURL
	}
	return &StationClient{url: stationsURL, http: client}
}

// Stations lists every station that publishes tide predictions, in the order
// NOAA returns them.
func (c *StationClient) Stations(ctx context.Context) ([]domain.Station, error) {
	var resp stationsResponse
	if err := c.http.GetJSON(ctx, c.url, url.Values{"type": {"tidepredictions"}}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Station, 0, len(resp.Stations))
	for _, s := range resp.Stations {
		if s.ID == "" {
			continue
		}
		out = append(out, domain.Station{
			ID:     s.ID,
			Name:   s.Name,
			Lat:    s.Lat,
			Lon:    s.Lng,
			Region: s.State,
		})
	}
	return out, nil
}

type stationsResponse struct {
	Stations []station `json:"stations"`
}

type station struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}
