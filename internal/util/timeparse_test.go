package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeExpr(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeExpr("3d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-3*24*time.Hour), got)

	got, err = parseTimeExpr("2w", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-14*24*time.Hour), got)

	got, err = parseTimeExpr("1mo", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, -1, 0), got)

	got, err = parseTimeExpr("90m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*time.Minute), got)

	got, err = parseTimeExpr("2024-01-02", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = parseTimeExpr("gibberish", now)
	assert.Error(t, err)
}

func TestTimeRange_SwapsReversedBounds(t *testing.T) {
	s, u, err := TimeRange("1d", "1w")
	require.NoError(t, err)
	assert.True(t, s.Before(u))
}

func TestInRange(t *testing.T) {
	mid := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	lo := mid.Add(-time.Hour)
	hi := mid.Add(time.Hour)

	assert.True(t, InRange(mid, lo, hi))
	assert.True(t, InRange(mid, time.Time{}, time.Time{}))
	assert.False(t, InRange(lo.Add(-time.Minute), lo, hi))
	assert.False(t, InRange(hi.Add(time.Minute), lo, hi))
}

func TestScoreCompletions(t *testing.T) {
	titles := []string{"meeting notes", "release plan", "meal prep"}

	got := ScoreCompletions("me", titles, 2)
	require.Len(t, got, 2)
	assert.Contains(t, got, "meeting notes")

	assert.Equal(t, titles, ScoreCompletions("", titles, 5))
	assert.Nil(t, ScoreCompletions("zzz", titles, 5))
}
