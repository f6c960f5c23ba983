// Package timeutil parses the loosely formatted ISO-8601 timestamps found in
// fixtures and API input, and formats timestamps the way the API emits them.
package timeutil

import (
	"strings"
	"time"
)

// DateOnlyLen is the length of a bare "YYYY-MM-DD" value.
const DateOnlyLen = len("2006-01-02")

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse returns the instant s denotes, in UTC. Values without an offset are
// taken as UTC. ok is false when no layout matches.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsDateOnly reports whether s is a bare calendar date.
func IsDateOnly(s string) bool {
	return len(s) == DateOnlyLen
}

// SameDate compares the UTC calendar dates of a and b.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Format renders t as an RFC 3339 string with a Z suffix.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
