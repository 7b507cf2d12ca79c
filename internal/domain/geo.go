package domain

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// GeoIndex answers nearest-station queries over a fixed set of stations.
// It is immutable after construction and safe for concurrent use.
type GeoIndex struct {
	stations []Station
}

// NewGeoIndex copies stations into a new index. Load order is preserved and
// decides ties.
func NewGeoIndex(stations []Station) *GeoIndex {
	cp := make([]Station, len(stations))
	copy(cp, stations)
	return &GeoIndex{stations: cp}
}

// Len returns the number of indexed stations.
func (g *GeoIndex) Len() int {
	if g == nil {
		return 0
	}
	return len(g.stations)
}

// Nearest returns a station of minimal haversine distance from (lat, lon).
// When several stations are equally close the first one in load order wins.
// An empty or nil index reports false; callers treat that as "no tide data".
func (g *GeoIndex) Nearest(lat, lon float64) (Station, bool) {
	if g.Len() == 0 || math.IsNaN(lat) || math.IsNaN(lon) {
		return Station{}, false
	}

	best := -1
	bestDist := math.Inf(1)
	for i, s := range g.stations {
		d := HaversineKm(lat, lon, s.Lat, s.Lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Station{}, false
	}
	return g.stations[best], true
}
