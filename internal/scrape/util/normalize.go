package util

import (
	"strings"
	"time"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 03:04 PM",
	"01/02/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTime tries the layouts origins are known to use and returns the
// instant in UTC. Times without a zone are read in loc (the origin's local
// zone). A nil result means the value was absent or unreadable; callers keep
// it absent rather than guessing.
func ParseTime(raw string, loc *time.Location) *time.Time {
	raw = CleanText(raw)
	if raw == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// Eastern is the zone of every South Florida origin; falls back to UTC when
// the tz database is unavailable.
func Eastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}
