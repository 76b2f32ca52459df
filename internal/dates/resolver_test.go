package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RelativeOffsetIndependentOfTimezone(t *testing.T) {
	ref := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	for _, tz := range []string{"UTC", "America/Chicago", "Asia/Tokyo"} {
		r := NewResolver(tz)
		due, ok := r.Resolve("remind me to call mom in 5 minutes", ref)
		require.True(t, ok, "timezone %s", tz)
		assert.True(t, due.Equal(ref.Add(5*time.Minute)), "timezone %s: got %s", tz, due)
		assert.Equal(t, time.UTC, due.Location())
	}
}

func TestResolve_TomorrowUsesUserTimezone(t *testing.T) {
	r := NewResolver("America/Chicago")

	// 23:00 on Jan 15 in UTC-6 is already Jan 16 in UTC; "tomorrow" must
	// mean the next local calendar day, not UTC's.
	loc := r.Location()
	ref := time.Date(2024, 1, 15, 23, 0, 0, 0, loc)

	due, ok := r.Resolve("tomorrow", ref)
	require.True(t, ok)

	local := due.In(loc)
	assert.Equal(t, 2024, local.Year())
	assert.Equal(t, time.January, local.Month())
	assert.Equal(t, 16, local.Day())
	assert.Equal(t, 23, local.Hour())
	// 2024-01-16T23:00-06:00 == 2024-01-17T05:00Z
	assert.True(t, due.Equal(time.Date(2024, 1, 17, 5, 0, 0, 0, time.UTC)))
}

func TestResolve_EmbeddedPhrase(t *testing.T) {
	r := NewResolver("UTC")
	ref := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	due, ok := r.Resolve("remind me to call mom in 1 minute", ref)
	require.True(t, ok)
	assert.True(t, due.Equal(ref.Add(time.Minute)))
}

func TestResolve_ClockTimePrefersFuture(t *testing.T) {
	r := NewResolver("UTC")
	ref := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC) // Monday afternoon

	// 9am already passed today, so the reminder means tomorrow morning
	due, ok := r.Resolve("remind me at 9am", ref)
	require.True(t, ok)
	assert.True(t, due.Equal(time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)), "got %s", due)

	// A clock time still ahead stays on the same day
	due, ok = r.Resolve("remind me at 5pm", ref)
	require.True(t, ok)
	assert.True(t, due.Equal(time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)), "got %s", due)

	// Weekday names already resolve forward and must not double-shift
	due, ok = r.Resolve("friday", ref)
	require.True(t, ok)
	assert.True(t, due.After(ref), "got %s", due)
	assert.Equal(t, time.Friday, due.In(time.UTC).Weekday())

	// "today" means the reference instant, not tomorrow
	due, ok = r.Resolve("today", ref)
	require.True(t, ok)
	assert.True(t, due.Equal(ref), "got %s", due)
}

func TestResolve_ClockTimePrefersFutureInUserTimezone(t *testing.T) {
	r := NewResolver("America/Chicago")
	loc := r.Location()
	ref := time.Date(2024, 1, 15, 15, 0, 0, 0, loc)

	due, ok := r.Resolve("remind me at 9am", ref)
	require.True(t, ok)

	local := due.In(loc)
	assert.Equal(t, 16, local.Day())
	assert.Equal(t, 9, local.Hour())
}

func TestResolve_NoDateFound(t *testing.T) {
	r := NewResolver("UTC")
	ref := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	_, ok := r.Resolve("hello there", ref)
	assert.False(t, ok)
}

func TestResolve_WholeSecondPrecision(t *testing.T) {
	r := NewResolver("UTC")
	ref := time.Date(2024, 1, 15, 12, 0, 0, 123456789, time.UTC)

	due, ok := r.Resolve("in 10 seconds", ref)
	require.True(t, ok)
	assert.Zero(t, due.Nanosecond())
}

func TestResolve_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	r := NewResolver("Not/AZone")
	assert.Equal(t, time.UTC, r.Location())
}

func TestRelativeFallback_PatternOrder(t *testing.T) {
	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		text string
		want time.Time
	}{
		{"in 3 minutes", base.Add(3 * time.Minute)},
		{"in 2 hours", base.Add(2 * time.Hour)},
		{"in 1 day", base.Add(24 * time.Hour)},
		{"in 45 seconds", base.Add(45 * time.Second)},
		{"10 minutes from now", base.Add(10 * time.Minute)},
		{"tomorrow", base.Add(24 * time.Hour)},
		{"today", base},
		{"next week", base.Add(7 * 24 * time.Hour)},
		{"next month", base.Add(30 * 24 * time.Hour)},
	}
	for _, tc := range cases {
		got, ok := relativeFallback(tc.text, base)
		require.True(t, ok, tc.text)
		assert.True(t, got.Equal(tc.want), "%s: got %s", tc.text, got)
	}

	_, ok := relativeFallback("no time here", base)
	assert.False(t, ok)
}
