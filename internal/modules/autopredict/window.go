package autopredict

import (
	"time"

	"github.com/tkohno/raceday/internal/modules/racecard"
)

// Window describes when the final prediction fires relative to a race's
// start: at start−Lead, accepted within ±Tolerance. The poll interval must
// stay below Tolerance so at least one tick lands inside every window.
type Window struct {
	Lead      time.Duration
	Tolerance time.Duration
}

// Contains reports whether now falls inside the firing window for a race
// starting at startAt.
func (w Window) Contains(now, startAt time.Time) bool {
	target := startAt.Add(-w.Lead)
	diff := now.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= w.Tolerance
}

// EligibleForFinal selects the races a tick at `now` should fire: inside
// their window and not fired yet. Pure apart from the fired callback, so
// the windowing logic is testable without real time. Races with an
// unparseable start time are skipped and counted.
func EligibleForFinal(now time.Time, races []racecard.Race, fired func(string) bool, w Window) (eligible []racecard.Race, parseFailures int) {
	for _, race := range races {
		startAt, err := race.StartAt(now.Location())
		if err != nil {
			parseFailures++
			continue
		}

		if !w.Contains(now, startAt) {
			continue
		}

		if fired(race.ID) {
			continue
		}

		eligible = append(eligible, race)
	}

	return eligible, parseFailures
}
