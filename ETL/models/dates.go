package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// timestampLayouts are tried in order. Layouts with an offset are converted into the
// reporting location, the rest are read as wall-clock time in it.
var timestampLayouts = []struct {
	layout    string
	hasOffset bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{DateLayout, false},
}

// NormalizeDate turns a timestamp or date into its YYYY-MM-DD calendar date in loc.
func NormalizeDate(raw string, loc *time.Location) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.hasOffset {
			t, err = time.Parse(l.layout, raw)
			t = t.In(loc)
		} else {
			t, err = time.ParseInLocation(l.layout, raw, loc)
		}
		if err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}

// MonthOf returns the YYYY-MM prefix of a canonical date.
func MonthOf(date string) string {
	if len(date) < len(MonthLayout) {
		return date
	}
	return date[:len(MonthLayout)]
}

// AddDays shifts a canonical date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// MonthRange lists every YYYY-MM from first to last inclusive.
func MonthRange(first, last string) ([]string, error) {
	start, err := time.Parse(MonthLayout, first)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(MonthLayout, last)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("month range %s..%s is reversed", first, last)
	}
	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(MonthLayout))
	}
	return months, nil
}
