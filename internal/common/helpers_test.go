package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSeen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		seen time.Time
		want string
	}{
		{name: "just now", seen: now, want: "0m ago"},
		{name: "minutes", seen: now.Add(-59*time.Minute - 59*time.Second), want: "59m ago"},
		{name: "exactly one hour", seen: now.Add(-time.Hour), want: "1h ago"},
		{name: "hours truncated", seen: now.Add(-5*time.Hour - 50*time.Minute), want: "5h ago"},
		{name: "future clamps to zero", seen: now.Add(time.Minute), want: "0m ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSeen(now, tt.seen))
		})
	}
}

func TestSince_NormalizesZones(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ny := time.FixedZone("EST", -5*60*60)
	seen := time.Date(2026, 3, 1, 6, 0, 0, 0, ny) // 11:00 UTC

	assert.Equal(t, time.Hour, Since(now, seen))
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, AgeDays(now, now.Add(-23*time.Hour)))
	assert.Equal(t, 30, AgeDays(now, now.Add(-30*24*time.Hour-time.Hour)))
	assert.Equal(t, 31, AgeDays(now, now.Add(-31*24*time.Hour)))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 4.0, Round1(1+4*0.75))
	assert.Equal(t, 4.0, Round1(4.04))
	assert.Equal(t, 4.1, Round1(4.06))
}
