package domain

import (
	"strings"
	"time"
)

// Astronomy is the raw daily astronomy lookup for one location, as returned by
// a provider. Placeholders such as "-:-" are still present here.
type Astronomy struct {
	Sunrise   string
	Sunset    string
	Moonrise  string
	Moonset   string
	MoonPhase string
}

var timePlaceholders = map[string]bool{
	"":      true,
	"-":     true,
	"-:-":   true,
	"--:--": true,
	"n/a":   true,
	"none":  true,
}

// NormalizeTimeOfDay returns s as "HH:MM", or nil when s is a provider
// placeholder for "no such event" or cannot be read as a time of day.
func NormalizeTimeOfDay(s string) *string {
	trimmed := strings.TrimSpace(s)
	if timePlaceholders[strings.ToLower(trimmed)] {
		return nil
	}
	for _, layout := range []string{"15:04", "15:04:05", "15:04:05.000"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Ptr(t.Format("15:04"))
		}
	}
	return nil
}

// NormalizeMoonPhase turns a provider phase name such as "WAXING_GIBBOUS" into
// "Waxing Gibbous". Placeholders yield nil.
func NormalizeMoonPhase(s string) *string {
	trimmed := strings.TrimSpace(s)
	if timePlaceholders[strings.ToLower(trimmed)] {
		return nil
	}

	words := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return Ptr(strings.Join(words, " "))
}

// Fields returns the normalised astronomy fields as they are stored.
func (a Astronomy) Fields() (sunrise, sunset, moonrise, moonset, phase *string) {
	return NormalizeTimeOfDay(a.Sunrise),
		NormalizeTimeOfDay(a.Sunset),
		NormalizeTimeOfDay(a.Moonrise),
		NormalizeTimeOfDay(a.Moonset),
		NormalizeMoonPhase(a.MoonPhase)
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
