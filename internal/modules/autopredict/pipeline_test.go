package autopredict

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkohno/raceday/internal/clients/predictor"
	"github.com/tkohno/raceday/internal/metrics"
	"github.com/tkohno/raceday/internal/modules/racecard"
	"github.com/tkohno/raceday/internal/modules/recommend"
)

type fakePredictionClient struct {
	prediction *predictor.Prediction
	err        error
}

func (f *fakePredictionClient) Generate(ctx context.Context, eventID string, isFinal bool) (*predictor.Prediction, error) {
	return f.prediction, f.err
}

type fakeNotifier struct {
	published []Notification
	err       error
}

func (f *fakeNotifier) Publish(ctx context.Context, n Notification) error {
	f.published = append(f.published, n)
	return f.err
}

type staticOdds struct {
	win recommend.OddsSnapshot
}

func (s *staticOdds) WinOdds(ctx context.Context, raceCode string, source recommend.OddsSource) (recommend.OddsSnapshot, error) {
	return s.win, nil
}

func (s *staticOdds) PlaceOdds(ctx context.Context, raceCode string, source recommend.OddsSource) (recommend.OddsSnapshot, error) {
	return recommend.OddsSnapshot{Source: source, Odds: map[int]float64{}}, nil
}

type failingOdds struct{}

func (failingOdds) WinOdds(ctx context.Context, raceCode string, source recommend.OddsSource) (recommend.OddsSnapshot, error) {
	return recommend.OddsSnapshot{}, errors.New("db down")
}

func (failingOdds) PlaceOdds(ctx context.Context, raceCode string, source recommend.OddsSource) (recommend.OddsSnapshot, error) {
	return recommend.OddsSnapshot{}, errors.New("db down")
}

var testRace = racecard.Race{ID: "r1", Date: "2026-08-25", Time: "15:25", Venue: "Nakayama", Number: 11}

func testPrediction() *predictor.Prediction {
	return &predictor.Prediction{
		PredictionID: "p-1",
		EventCode:    "202608250511",
		RankedEntrants: []predictor.RankedEntrant{
			{Number: 7, Name: "Favorite", Rank: 1, WinProbability: 0.35, PlaceProbability: 0.6},
		},
	}
}

func newPipeline(client PredictionClient, odds recommend.OddsProvider, notifier Notifier) *PredictionPipeline {
	engine := recommend.NewEngine(odds, recommend.DefaultThresholds(), zerolog.Nop())
	m := metrics.New(prometheus.NewRegistry())
	return NewPipeline(client, engine, notifier, m, zerolog.Nop())
}

func TestPipeline_SuccessPublishesRecommendations(t *testing.T) {
	odds := &staticOdds{win: recommend.OddsSnapshot{
		Source: recommend.OddsSourceLive,
		Odds:   map[int]float64{7: 5.0},
	}}
	notifier := &fakeNotifier{}
	pipeline := newPipeline(&fakePredictionClient{prediction: testPrediction()}, odds, notifier)

	ok := pipeline.Execute(context.Background(), testRace, true)

	assert.True(t, ok)
	require.Len(t, notifier.published, 1)

	n := notifier.published[0]
	assert.True(t, n.IsFinal)
	assert.Equal(t, "r1", n.Race.ID)
	assert.Equal(t, "202608250511", n.Recommendations.RaceCode)
	require.Len(t, n.Recommendations.StrongWin, 1) // EV 1.75
	require.NotNil(t, n.Recommendations.TopPickWin)
}

func TestPipeline_GenerateFailureReturnsFalse(t *testing.T) {
	notifier := &fakeNotifier{}
	pipeline := newPipeline(&fakePredictionClient{err: errors.New("503")}, &staticOdds{}, notifier)

	ok := pipeline.Execute(context.Background(), testRace, true)

	assert.False(t, ok)
	assert.Empty(t, notifier.published)
}

func TestPipeline_OddsFailureReturnsFalse(t *testing.T) {
	notifier := &fakeNotifier{}
	pipeline := newPipeline(&fakePredictionClient{prediction: testPrediction()}, failingOdds{}, notifier)

	ok := pipeline.Execute(context.Background(), testRace, true)

	assert.False(t, ok)
	assert.Empty(t, notifier.published)
}

func TestPipeline_NotificationFailureStillSucceeds(t *testing.T) {
	// A dead webhook degrades to no delivery; the race must not be
	// retried for a transport problem.
	odds := &staticOdds{win: recommend.OddsSnapshot{
		Source: recommend.OddsSourceLive,
		Odds:   map[int]float64{7: 5.0},
	}}
	notifier := &fakeNotifier{err: errors.New("webhook 404")}
	pipeline := newPipeline(&fakePredictionClient{prediction: testPrediction()}, odds, notifier)

	ok := pipeline.Execute(context.Background(), testRace, true)

	assert.True(t, ok)
}

func TestPipeline_NoOddsDataStillSucceeds(t *testing.T) {
	notifier := &fakeNotifier{}
	pipeline := newPipeline(&fakePredictionClient{prediction: testPrediction()}, &staticOdds{}, notifier)

	ok := pipeline.Execute(context.Background(), testRace, true)

	assert.True(t, ok)
	require.Len(t, notifier.published, 1)
	assert.True(t, notifier.published[0].Recommendations.NoOddsData)
}
