package autopredict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkohno/raceday/internal/clients/predictor"
	"github.com/tkohno/raceday/internal/metrics"
	"github.com/tkohno/raceday/internal/modules/racecard"
)

type fakeLister struct {
	events []predictor.Event
	err    error
}

func (f *fakeLister) ListEvents(ctx context.Context, date string) ([]predictor.Event, error) {
	return f.events, f.err
}

type fakePipeline struct {
	executions []string
	succeed    bool
}

func (f *fakePipeline) Execute(ctx context.Context, race racecard.Race, isFinal bool) bool {
	f.executions = append(f.executions, race.ID)
	return f.succeed
}

// fixedNow is 14:25 UTC, one lead-length before a 15:25 start.
var fixedNow = time.Date(2026, 8, 25, 14, 25, 0, 0, time.UTC)

func newFinalJob(lister *fakeLister, pipeline Pipeline, state *State) *FinalPredictionJob {
	m := metrics.New(prometheus.NewRegistry())
	cards := racecard.NewService(lister, m.DateMismatchDrops, zerolog.Nop())
	job := NewFinalPredictionJob(cards, pipeline, state, testWindow, m, time.UTC, zerolog.Nop())
	job.now = func() time.Time { return fixedNow }
	return job
}

func todayEvent(id, startTime string) predictor.Event {
	return predictor.Event{
		ID:    id,
		Date:  fixedNow.Format(racecard.DateLayout),
		Time:  startTime,
		Venue: "Nakayama",
	}
}

func TestFinalJob_FiresExactlyOnceAcrossTicks(t *testing.T) {
	lister := &fakeLister{events: []predictor.Event{todayEvent("r1", "15:25")}}
	pipeline := &fakePipeline{succeed: true}
	state := NewState()
	job := newFinalJob(lister, pipeline, state)

	// Several ticks land inside the same window.
	for i := 0; i < 4; i++ {
		require.NoError(t, job.Run())
	}

	assert.Equal(t, []string{"r1"}, pipeline.executions)
	assert.True(t, state.FinalFired("r1"))
}

func TestFinalJob_FailedPipelineRetriesNextTick(t *testing.T) {
	lister := &fakeLister{events: []predictor.Event{todayEvent("r1", "15:25")}}
	pipeline := &fakePipeline{succeed: false}
	state := NewState()
	job := newFinalJob(lister, pipeline, state)

	require.NoError(t, job.Run())
	require.NoError(t, job.Run())

	// Both ticks attempted; the race never transitioned to fired.
	assert.Equal(t, []string{"r1", "r1"}, pipeline.executions)
	assert.False(t, state.FinalFired("r1"))

	// Once the pipeline recovers, the next tick fires and marks it.
	pipeline.succeed = true
	require.NoError(t, job.Run())
	assert.Equal(t, []string{"r1", "r1", "r1"}, pipeline.executions)
	assert.True(t, state.FinalFired("r1"))
}

func TestFinalJob_SequentialAcrossRaces(t *testing.T) {
	lister := &fakeLister{events: []predictor.Event{
		todayEvent("r1", "15:25"),
		todayEvent("r2", "15:30"),
		todayEvent("r3", "18:00"), // outside window
	}}
	pipeline := &fakePipeline{succeed: true}
	job := newFinalJob(lister, pipeline, NewState())

	require.NoError(t, job.Run())

	assert.Equal(t, []string{"r1", "r2"}, pipeline.executions)
}

func TestFinalJob_UnparseableTimeSkipped(t *testing.T) {
	lister := &fakeLister{events: []predictor.Event{
		todayEvent("bad", "noonish"),
		todayEvent("good", "15:25"),
	}}
	pipeline := &fakePipeline{succeed: true}
	job := newFinalJob(lister, pipeline, NewState())

	require.NoError(t, job.Run())

	// The malformed race is skipped, the poll continues.
	assert.Equal(t, []string{"good"}, pipeline.executions)
}

func TestFinalJob_ListingFailureReturnsError(t *testing.T) {
	lister := &fakeLister{err: errors.New("listing down")}
	pipeline := &fakePipeline{succeed: true}
	job := newFinalJob(lister, pipeline, NewState())

	assert.Error(t, job.Run())
	assert.Empty(t, pipeline.executions)
}

func TestFinalJob_ResetAllowsRefire(t *testing.T) {
	lister := &fakeLister{events: []predictor.Event{todayEvent("r1", "15:25")}}
	pipeline := &fakePipeline{succeed: true}
	state := NewState()
	job := newFinalJob(lister, pipeline, state)

	require.NoError(t, job.Run())
	state.Reset()
	require.NoError(t, job.Run())

	assert.Equal(t, []string{"r1", "r1"}, pipeline.executions)
}

func TestEveningJob_PredictsTomorrowOnce(t *testing.T) {
	tomorrow := fixedNow.AddDate(0, 0, 1).Format(racecard.DateLayout)
	lister := &fakeLister{events: []predictor.Event{
		{ID: "t1", Date: tomorrow, Time: "10:10"},
		{ID: "t2", Date: tomorrow, Time: "10:45"},
	}}
	pipeline := &fakePipeline{succeed: true}
	state := NewState()

	m := metrics.New(prometheus.NewRegistry())
	cards := racecard.NewService(lister, m.DateMismatchDrops, zerolog.Nop())
	job := NewEveningPredictionJob(cards, pipeline, state, m, time.UTC, zerolog.Nop())
	job.now = func() time.Time { return fixedNow }

	require.NoError(t, job.Run())
	require.NoError(t, job.Run())

	// Second run skips both: already predicted this process lifetime.
	assert.Equal(t, []string{"t1", "t2"}, pipeline.executions)
	assert.True(t, state.InitialFired("t1"))
	assert.True(t, state.InitialFired("t2"))
}
