package autopredict

import (
	"sync"
	"time"
)

// State tracks which races have already had a prediction fired. It lives
// for the process lifetime only: a restart forgets everything and races
// still inside their window may fire again. The mutex serializes tick
// processing against administrative reset.
type State struct {
	mu      sync.Mutex
	final   map[string]time.Time
	initial map[string]time.Time
}

// NewState creates an empty scheduler state.
func NewState() *State {
	return &State{
		final:   map[string]time.Time{},
		initial: map[string]time.Time{},
	}
}

// MarkFinal records a successful final-prediction fire for a race.
func (s *State) MarkFinal(raceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.final[raceID] = time.Now()
}

// FinalFired reports whether the final prediction already fired for a race.
func (s *State) FinalFired(raceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.final[raceID]
	return ok
}

// MarkInitial records a successful evening (initial) prediction for a race.
func (s *State) MarkInitial(raceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initial[raceID] = time.Now()
}

// InitialFired reports whether the evening prediction already ran for a race.
func (s *State) InitialFired(raceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.initial[raceID]
	return ok
}

// Counts returns the number of fired final and initial predictions.
func (s *State) Counts() (final int, initial int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.final), len(s.initial)
}

// Reset clears all fired records, making every race eligible again.
// Operator-triggered recovery only; ticks after a reset will re-fire races
// still inside their window.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.final = map[string]time.Time{}
	s.initial = map[string]time.Time{}
}
