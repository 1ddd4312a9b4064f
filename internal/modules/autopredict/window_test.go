package autopredict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkohno/raceday/internal/modules/racecard"
)

var testWindow = Window{Lead: 60 * time.Minute, Tolerance: 8 * time.Minute}

func TestWindowContains(t *testing.T) {
	start := time.Date(2026, 8, 25, 15, 25, 0, 0, time.UTC)
	target := start.Add(-testWindow.Lead)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly at target", target, true},
		{"tolerance before target", target.Add(-testWindow.Tolerance), true},
		{"tolerance after target", target.Add(testWindow.Tolerance), true},
		{"just before the window opens", target.Add(-testWindow.Tolerance - time.Second), false},
		{"just after the window closes", target.Add(testWindow.Tolerance + time.Second), false},
		{"at race start", start, false},
		{"hours early", start.Add(-5 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testWindow.Contains(tt.now, start))
		})
	}
}

func neverFired(string) bool { return false }

func TestEligibleForFinal(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 25, 0, 0, time.UTC)

	races := []racecard.Race{
		{ID: "in-window", Date: "2026-08-25", Time: "15:25"},       // target 14:25
		{ID: "too-early", Date: "2026-08-25", Time: "16:40"},       // target 15:40
		{ID: "already-run", Date: "2026-08-25", Time: "11:00"},     // target 10:00
		{ID: "compact-form", Date: "2026-08-25", Time: "1530"},     // target 14:30, inside
		{ID: "bad-time", Date: "2026-08-25", Time: "around noon"},  // parse failure
	}

	eligible, parseFailures := EligibleForFinal(now, races, neverFired, testWindow)

	assert.Equal(t, 1, parseFailures)
	require.Len(t, eligible, 2)
	assert.Equal(t, "in-window", eligible[0].ID)
	assert.Equal(t, "compact-form", eligible[1].ID)
}

func TestEligibleForFinal_SkipsFired(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 25, 0, 0, time.UTC)
	races := []racecard.Race{
		{ID: "r1", Date: "2026-08-25", Time: "15:25"},
		{ID: "r2", Date: "2026-08-25", Time: "15:27"},
	}

	fired := func(id string) bool { return id == "r1" }

	eligible, _ := EligibleForFinal(now, races, fired, testWindow)
	require.Len(t, eligible, 1)
	assert.Equal(t, "r2", eligible[0].ID)
}

func TestEligibleForFinal_RepeatTicksInsideWindow(t *testing.T) {
	// Simulated poll: ticks every 3 minutes across the window. With the
	// fired set updated after the first hit, the race is selected exactly
	// once.
	state := NewState()
	race := racecard.Race{ID: "r1", Date: "2026-08-25", Time: "15:25"}

	target := time.Date(2026, 8, 25, 14, 25, 0, 0, time.UTC)
	selected := 0
	for tick := -9 * time.Minute; tick <= 9*time.Minute; tick += 3 * time.Minute {
		now := target.Add(tick)
		eligible, _ := EligibleForFinal(now, []racecard.Race{race}, state.FinalFired, testWindow)
		for _, r := range eligible {
			selected++
			state.MarkFinal(r.ID)
		}
	}

	assert.Equal(t, 1, selected)
}
