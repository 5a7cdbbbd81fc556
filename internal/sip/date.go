package sip

import (
	"fmt"
	"time"
)

// DateLayout is the format of every logical date: YYYY-MM-DD.
const DateLayout = "2006-01-02"

// overrideHour is the time of day stamped on events logged against an explicit date,
// so range queries over logged_at stay consistent with the logical date.
const overrideHour = 12

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseDate parses a logical date. The result is midnight UTC on that date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// FormatDate returns the calendar date of t in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a logical date by n days (negative moves backward).
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// ParseTimestamp accepts RFC 3339 timestamps and the zone-less forms produced by
// common exports. Zone-less values are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedDate, s)
}

// overrideTimestamp is the stored instant for an event attributed to date.
func overrideTimestamp(date string) (time.Time, error) {
	t, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(overrideHour * time.Hour), nil
}

// dateRange returns the logical dates from today back through today-(days-1),
// newest first.
func dateRange(today string, days int) ([]string, error) {
	start, err := ParseDate(today)
	if err != nil {
		return nil, err
	}
	dates := make([]string, days)
	for i := range days {
		dates[i] = FormatDate(start.AddDate(0, 0, -i))
	}
	return dates, nil
}
