package util

import "time"

// DateLayout is the calendar-date form used for aggregate keys and API payloads.
const DateLayout = "2006-01-02"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DateIn renders t as a calendar date in the given zone. A nil zone means UTC.
func DateIn(t time.Time, zone *time.Location) string {
	if zone == nil {
		zone = time.UTC
	}
	return t.In(zone).Format(DateLayout)
}

// ParseDate parses a calendar date in UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// ShiftDate moves a calendar date by the given number of days.
func ShiftDate(date string, days int) (string, error) {
	parsed, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return parsed.AddDate(0, 0, days).Format(DateLayout), nil
}
