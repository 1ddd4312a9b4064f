package autopredict

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkohno/raceday/internal/metrics"
	"github.com/tkohno/raceday/internal/modules/racecard"
)

// FinalPredictionJob is the periodic poll: each tick it lists today's card,
// finds the races inside their firing window, and runs the pipeline for
// each of them sequentially. A race transitions to fired only on pipeline
// success; a failed run stays eligible until its window closes.
type FinalPredictionJob struct {
	cards       *racecard.Service
	pipeline    Pipeline
	state       *State
	window      Window
	metrics     *metrics.Metrics
	loc         *time.Location
	tickTimeout time.Duration
	now         func() time.Time // injectable for tests
	log         zerolog.Logger
}

// NewFinalPredictionJob creates the final-prediction poll job.
func NewFinalPredictionJob(
	cards *racecard.Service,
	pipeline Pipeline,
	state *State,
	window Window,
	m *metrics.Metrics,
	loc *time.Location,
	log zerolog.Logger,
) *FinalPredictionJob {
	return &FinalPredictionJob{
		cards:       cards,
		pipeline:    pipeline,
		state:       state,
		window:      window,
		metrics:     m,
		loc:         loc,
		tickTimeout: 5 * time.Minute,
		now:         time.Now,
		log:         log.With().Str("job", "final_prediction_check").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *FinalPredictionJob) Name() string {
	return "final_prediction_check"
}

// Run executes one poll tick.
func (j *FinalPredictionJob) Run() error {
	j.metrics.PollTicks.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), j.tickTimeout)
	defer cancel()

	now := j.now().In(j.loc)
	today := now.Format(racecard.DateLayout)

	races, dropped, err := j.cards.ListForDate(ctx, today)
	if err != nil {
		// Transient listing failure; next tick retries.
		j.log.Error().Err(err).Msg("Failed to list today's races")
		return err
	}

	eligible, parseFailures := EligibleForFinal(now, races, j.state.FinalFired, j.window)
	if parseFailures > 0 {
		j.metrics.StartTimeParseErr.Add(float64(parseFailures))
		j.log.Warn().Int("count", parseFailures).Msg("Races skipped with unparseable start time")
	}

	if len(eligible) == 0 {
		j.log.Debug().Int("races", len(races)).Int("dropped", dropped).Msg("No races in window")
		return nil
	}

	for _, race := range eligible {
		j.log.Info().
			Str("race_id", race.ID).
			Str("venue", race.Venue).
			Str("start_time", race.Time).
			Msg("Race inside final-prediction window")

		if j.pipeline.Execute(ctx, race, true) {
			j.state.MarkFinal(race.ID)
			j.metrics.PredictionsFired.WithLabelValues("final").Inc()
		} else {
			j.metrics.PipelineFailures.WithLabelValues("final").Inc()
		}
	}

	return nil
}

// EveningPredictionJob runs once per day: the initial prediction for every
// race on tomorrow's card, ahead of the raceday itself.
type EveningPredictionJob struct {
	cards       *racecard.Service
	pipeline    Pipeline
	state       *State
	metrics     *metrics.Metrics
	loc         *time.Location
	tickTimeout time.Duration
	now         func() time.Time // injectable for tests
	log         zerolog.Logger
}

// NewEveningPredictionJob creates the evening initial-prediction job.
func NewEveningPredictionJob(
	cards *racecard.Service,
	pipeline Pipeline,
	state *State,
	m *metrics.Metrics,
	loc *time.Location,
	log zerolog.Logger,
) *EveningPredictionJob {
	return &EveningPredictionJob{
		cards:       cards,
		pipeline:    pipeline,
		state:       state,
		metrics:     m,
		loc:         loc,
		tickTimeout: 30 * time.Minute,
		now:         time.Now,
		log:         log.With().Str("job", "evening_prediction").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *EveningPredictionJob) Name() string {
	return "evening_prediction"
}

// Run predicts every race scheduled for tomorrow that has not been
// predicted yet this process lifetime.
func (j *EveningPredictionJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.tickTimeout)
	defer cancel()

	tomorrow := j.now().In(j.loc).AddDate(0, 0, 1).Format(racecard.DateLayout)

	races, _, err := j.cards.ListForDate(ctx, tomorrow)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to list tomorrow's races")
		return err
	}

	if len(races) == 0 {
		j.log.Info().Str("date", tomorrow).Msg("No races scheduled tomorrow")
		return nil
	}

	j.log.Info().Str("date", tomorrow).Int("count", len(races)).Msg("Running evening predictions")

	for _, race := range races {
		if j.state.InitialFired(race.ID) {
			continue
		}

		if j.pipeline.Execute(ctx, race, false) {
			j.state.MarkInitial(race.ID)
			j.metrics.PredictionsFired.WithLabelValues("initial").Inc()
		} else {
			j.metrics.PipelineFailures.WithLabelValues("initial").Inc()
		}
	}

	return nil
}
