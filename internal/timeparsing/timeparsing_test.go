package timeparsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, January 15, 2025, 10:00 local.
var ref = time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local)

func TestParseCompactDuration(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"+6h", time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)},
		{"-6h", time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)},
		{"+1d", time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)},
		{"-2w", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		{"3m", time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)},
		{"+1y", time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompactDuration(tt.in, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	for _, bad := range []string{"", "6", "+6x", "++1d", "1.5h", "+1d "} {
		_, err := ParseCompactDuration(bad, now)
		assert.Error(t, err, "input %q", bad)
		assert.False(t, IsCompactDuration(bad), "input %q", bad)
	}
}

func TestParseCompactDurationCalendarEdges(t *testing.T) {
	// Jan 31 + 1 month normalizes past the end of February.
	got, err := ParseCompactDuration("+1m", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())

	got, err = ParseCompactDuration("+1d", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 29, got.Day(), "2024 is a leap year")

	loc := time.FixedZone("EST", -5*3600)
	got, err = ParseCompactDuration("+1d", time.Date(2025, 1, 15, 10, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
}

func TestParseNaturalLanguage(t *testing.T) {
	tests := []struct {
		in      string
		wantDay int
	}{
		{"tomorrow", 16},
		{"yesterday", 14},
		{"3 days ago", 12},
		{"in 3 days", 18},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNaturalLanguage(tt.in, ref)
			require.NoError(t, err)
			assert.Equal(t, time.January, got.Month())
			assert.Equal(t, tt.wantDay, got.Day())
		})
	}

	for _, bad := range []string{"", "   ", "not a date at all"} {
		_, err := ParseNaturalLanguage(bad, ref)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseRelativeTimeLayers(t *testing.T) {
	got, err := ParseRelativeTime("+1d", ref)
	require.NoError(t, err)
	assert.True(t, ref.AddDate(0, 0, 1).Equal(got), "compact duration keeps the time of day")

	got, err = ParseRelativeTime("2025-02-01", ref)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local).Equal(got), "got %v", got)

	got, err = ParseRelativeTime("2025-03-15T14:30:00Z", ref)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC).Equal(got))

	got, err = ParseRelativeTime(" yesterday ", ref)
	require.NoError(t, err)
	assert.Equal(t, 14, got.Day())

	_, err = ParseRelativeTime("not-a-date", ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time")
}
