package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Validate checks the mandatory identifying fields of a record about to be
// inserted. Environmental inputs are all optional and are not checked.
func Validate(r FishingRecord) error {
	var fields []string

	if strings.TrimSpace(r.Title) == "" {
		fields = append(fields, "title")
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		fields = append(fields, "date")
	}
	if _, err := parseTimeOfDay(r.Time); err != nil {
		fields = append(fields, "time")
	}
	if strings.TrimSpace(r.CatchStatus) == "" {
		fields = append(fields, "catch_status")
	}
	if r.Latitude != nil && (math.IsNaN(*r.Latitude) || *r.Latitude < -90 || *r.Latitude > 90) {
		fields = append(fields, "latitude")
	}
	if r.Longitude != nil && (math.IsNaN(*r.Longitude) || *r.Longitude < -180 || *r.Longitude > 180) {
		fields = append(fields, "longitude")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CatchTime combines a record's local date and time of day in loc.
func CatchTime(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	tod, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc), nil
}

// PreviousDate returns the calendar day before date.
func PreviousDate(date string) (string, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return d.AddDate(0, 0, -1).Format(dateLayout), nil
}

func parseTimeOfDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{timeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time of day %q", s)
}
