package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStations = []Station{
	{ID: "8443970", Name: "Boston", Lat: 42.3539, Lon: -71.0503, Region: "MA"},
	{ID: "8447930", Name: "Woods Hole", Lat: 41.5236, Lon: -70.6711, Region: "MA"},
	{ID: "8449130", Name: "Nantucket Island", Lat: 41.2856, Lon: -70.0967, Region: "MA"},
	{ID: "8452660", Name: "Newport", Lat: 41.5044, Lon: -71.3261, Region: "RI"},
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(41.5, -70.6, 41.5, -70.6), 1e-9)
	// One degree of latitude on a 6371 km sphere.
	assert.InDelta(t, 111.195, HaversineKm(0, 0, 1, 0), 0.001)
	assert.InDelta(t, HaversineKm(42.35, -71.05, 41.5, -71.32), HaversineKm(41.5, -71.32, 42.35, -71.05), 1e-9)
}

func TestGeoIndex_Nearest(t *testing.T) {
	idx := NewGeoIndex(testStations)
	require.Equal(t, 4, idx.Len())

	s, ok := idx.Nearest(41.53, -70.68)
	require.True(t, ok)
	assert.Equal(t, "8447930", s.ID)

	s, ok = idx.Nearest(42.30, -71.00)
	require.True(t, ok)
	assert.Equal(t, "8443970", s.ID)
}

func TestGeoIndex_NearestIsMinimal(t *testing.T) {
	idx := NewGeoIndex(testStations)
	points := [][2]float64{
		{41.0, -70.0}, {42.9, -70.5}, {41.45, -71.5}, {40.0, -73.0}, {41.3, -70.1},
	}

	for _, p := range points {
		got, ok := idx.Nearest(p[0], p[1])
		require.True(t, ok)
		best := HaversineKm(p[0], p[1], got.Lat, got.Lon)
		for _, other := range testStations {
			assert.LessOrEqual(t, best, HaversineKm(p[0], p[1], other.Lat, other.Lon))
		}
	}
}

func TestGeoIndex_Empty(t *testing.T) {
	_, ok := NewGeoIndex(nil).Nearest(41.5, -70.6)
	assert.False(t, ok)

	var idx *GeoIndex
	_, ok = idx.Nearest(41.5, -70.6)
	assert.False(t, ok)
	assert.Equal(t, 0, idx.Len())
}

func TestGeoIndex_TieGoesToFirstLoaded(t *testing.T) {
	idx := NewGeoIndex([]Station{
		{ID: "east", Lat: 0, Lon: 1},
		{ID: "west", Lat: 0, Lon: -1},
	})

	s, ok := idx.Nearest(0, 0)
	require.True(t, ok)
	assert.Equal(t, "east", s.ID)
}

func TestGeoIndex_CopiesInput(t *testing.T) {
	stations := []Station{{ID: "a", Lat: 10, Lon: 10}}
	idx := NewGeoIndex(stations)
	stations[0].ID = "mutated"

	s, _ := idx.Nearest(10, 10)
	assert.Equal(t, "a", s.ID)
}
