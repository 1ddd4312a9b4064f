package autopredict

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tkohno/raceday/internal/clients/predictor"
	"github.com/tkohno/raceday/internal/metrics"
	"github.com/tkohno/raceday/internal/modules/racecard"
	"github.com/tkohno/raceday/internal/modules/recommend"
)

// Notification is the structured result handed to the notification
// collaborator. All rendering happens on the collaborator's side.
type Notification struct {
	Race            racecard.Race
	Prediction      *predictor.Prediction
	Recommendations *recommend.Result
	IsFinal         bool
}

// Notifier delivers a prediction result to wherever humans read it.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// PredictionClient generates predictions for a race.
type PredictionClient interface {
	Generate(ctx context.Context, eventID string, isFinal bool) (*predictor.Prediction, error)
}

// Pipeline runs the prediction-and-recommendation flow for one race and
// reports whether it succeeded. A false return leaves the race eligible
// for retry on the next in-window tick.
type Pipeline interface {
	Execute(ctx context.Context, race racecard.Race, isFinal bool) bool
}

// PredictionPipeline is the production pipeline: prediction service call,
// expected-value recommendations over live odds, then notification.
type PredictionPipeline struct {
	predictions PredictionClient
	engine      *recommend.Engine
	notifier    Notifier
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewPipeline creates the production prediction pipeline.
func NewPipeline(predictions PredictionClient, engine *recommend.Engine, notifier Notifier, m *metrics.Metrics, log zerolog.Logger) *PredictionPipeline {
	return &PredictionPipeline{
		predictions: predictions,
		engine:      engine,
		notifier:    notifier,
		metrics:     m,
		log:         log.With().Str("module", "autopredict").Logger(),
	}
}

// Execute runs the pipeline for one race. Notification failures degrade to
// "no delivery": the computation succeeded, so the race is not retried for
// a transport problem.
func (p *PredictionPipeline) Execute(ctx context.Context, race racecard.Race, isFinal bool) bool {
	log := p.log.With().
		Str("run_id", uuid.New().String()).
		Str("race_id", race.ID).
		Bool("is_final", isFinal).
		Logger()

	prediction, err := p.predictions.Generate(ctx, race.ID, isFinal)
	if err != nil {
		log.Error().Err(err).Msg("Prediction generation failed")
		return false
	}

	horses := make([]recommend.RankedHorse, 0, len(prediction.RankedEntrants))
	for _, entrant := range prediction.RankedEntrants {
		horses = append(horses, recommend.RankedHorse{
			Number:           entrant.Number,
			Name:             entrant.Name,
			Rank:             entrant.Rank,
			WinProbability:   entrant.WinProbability,
			PlaceProbability: entrant.PlaceProbability,
		})
	}

	result, err := p.engine.Recommend(ctx, prediction.EventCode, horses, recommend.OddsSourceLive)
	if err != nil {
		log.Error().Err(err).Msg("Recommendation computation failed")
		return false
	}

	notification := Notification{
		Race:            race,
		Prediction:      prediction,
		Recommendations: result,
		IsFinal:         isFinal,
	}

	if err := p.notifier.Publish(ctx, notification); err != nil {
		log.Error().Err(err).Msg("Notification delivery failed")
		p.metrics.NotificationsFail.Inc()
	} else {
		p.metrics.NotificationsSent.Inc()
	}

	log.Info().
		Str("prediction_id", prediction.PredictionID).
		Bool("no_odds_data", result.NoOddsData).
		Msg("Prediction pipeline completed")

	return true
}
