package util

import (
	"strconv"
	"time"
)

// ParseTime accepts RFC3339 (with or without fractional seconds) and unix
// seconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseRange parses an optional since/until pair. Empty bounds stay zero;
// a malformed bound or since after until is an error naming the field.
func ParseRange(since, until string) (from, to time.Time, field string, ok bool) {
	if since != "" {
		if from, ok = ParseTime(since); !ok {
			return from, to, "since", false
		}
	}
	if until != "" {
		if to, ok = ParseTime(until); !ok {
			return from, to, "until", false
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return from, to, "since", false
	}
	return from, to, "", true
}
