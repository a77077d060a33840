package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	ref := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"rfc3339", "2024-10-10T10:10:10Z", ref, true},
		{"rfc3339 nano", "2024-10-10T10:10:10.5Z", ref.Add(500 * time.Millisecond), true},
		{"unix", strconv.FormatInt(ref.Unix(), 10), ref, true},
		{"empty", "", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
		{"negative unix", "-5", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseRange(t *testing.T) {
	from, to, _, ok := ParseRange("", "")
	assert.True(t, ok)
	assert.True(t, from.IsZero() && to.IsZero())

	_, _, field, ok := ParseRange("bad", "")
	assert.False(t, ok)
	assert.Equal(t, "since", field)

	_, _, field, ok = ParseRange("", "bad")
	assert.False(t, ok)
	assert.Equal(t, "until", field)

	_, _, field, ok = ParseRange("2024-10-11T00:00:00Z", "2024-10-10T00:00:00Z")
	assert.False(t, ok)
	assert.Equal(t, "since", field)

	from, to, _, ok = ParseRange("2024-10-10T00:00:00Z", "1728604800")
	assert.True(t, ok)
	assert.Equal(t, 2024, from.Year())
	assert.True(t, to.After(from))
}
