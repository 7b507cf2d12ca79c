// Package domain models fishing-trip records and the environmental context
// resolved for them at the moment of catch.
//
// # Data Sources
//
// Environmental context comes from four upstream sources, each reduced to
// provider-neutral samples before it reaches this package:
//
//	Astronomy   sunrise/sunset/moonrise/moonset as "HH:MM" and a moon phase name
//	Pressure    hourly surface pressure in hPa
//	Weather     hourly air temperature in °F and a WMO weather code
//	Tides       discrete high/low events and, where published, a 6-minute
//	            height series, both in feet above MLLW
//
// The station directory is loaded once at process start and indexed by
// [GeoIndex]. Records keep only the id of the nearest station, not a foreign
// key: the station is recomputed by nearest-neighbour search on every
// enrichment.
//
// # Absence
//
// Every field of [EnvironmentalContext] is a pointer. nil means the inputs
// needed to compute the value were not available. Providers use placeholder
// strings for "no such event" (the moon does not rise on some days); those
// are normalised to nil by [NormalizeTimeOfDay] and never stored.
//
// # Tide Stage
//
// Stage is derived from a dense height series when one exists, otherwise
// from the two high/low events bracketing the catch time:
//
//	Dense:  |rate| < 0.1 ft/h ⇒ Slack, rate > 0 ⇒ Rising, rate < 0 ⇒ Dropping
//	Sparse: within 20 min of either bracket ⇒ Slack,
//	        Low→High ⇒ Rising, High→Low ⇒ Dropping, otherwise Unknown
//
// # Barometric Trend
//
// Trend compares the reading at catch time with the reading three hours
// earlier. Differences within ±0.5 hPa are Steady; the deadband suppresses
// noise between near-equal consecutive hourly readings and is configurable.
//
// # Weather Codes
//
// Weather conditions use the WMO 4677 subset published by Open-Meteo:
//
//	0 Clear | 1–2 Partly Cloudy | 3 Overcast | 45, 48 Fog
//	51–55 Drizzle | 56–57 Freezing Drizzle | 61–65 Rain | 66–67 Freezing Rain
//	71–75 Snow | 77 Snow Grains | 80–82 Rain Showers | 85–86 Snow Showers
//	95 Thunderstorm | 96, 99 Thunderstorm with Hail
//
// Anything else maps to "Unknown".
package domain
