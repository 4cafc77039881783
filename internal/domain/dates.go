package domain

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate accepts the date formats the upstream services are known to send
// and returns the instant in UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// Contains reports whether raw parses to an instant inside the period.
func (p Period) Contains(raw string) bool {
	date, ok := ParseDate(raw)
	if !ok {
		return false
	}
	return !date.Before(p.Start()) && date.Before(p.End())
}
