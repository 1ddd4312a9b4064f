package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// OddsProvider supplies per-market odds snapshots for a race.
type OddsProvider interface {
	WinOdds(ctx context.Context, raceCode string, source OddsSource) (OddsSnapshot, error)
	PlaceOdds(ctx context.Context, raceCode string, source OddsSource) (OddsSnapshot, error)
}

// Engine turns ranked probabilities plus market odds into tiered betting
// recommendations: expected value = probability × odds.
type Engine struct {
	odds       OddsProvider
	thresholds Thresholds
	log        zerolog.Logger
}

// NewEngine creates a recommendation engine with the given thresholds.
func NewEngine(odds OddsProvider, thresholds Thresholds, log zerolog.Logger) *Engine {
	return &Engine{
		odds:       odds,
		thresholds: thresholds,
		log:        log.With().Str("module", "recommend").Logger(),
	}
}

// Thresholds returns the engine's configured thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Recommend computes tiered recommendations for one race.
//
// Horses with missing, zero, or negative odds or probability are excluded
// from that market without error; a horse absent from a snapshot is
// indistinguishable from one with zero odds. When both snapshots are empty
// the returned result is valid and empty, flagged with NoOddsData.
func (e *Engine) Recommend(ctx context.Context, raceCode string, horses []RankedHorse, source OddsSource) (*Result, error) {
	winSnap, err := e.odds.WinOdds(ctx, raceCode, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load win odds: %w", err)
	}

	placeSnap, err := e.odds.PlaceOdds(ctx, raceCode, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load place odds: %w", err)
	}

	result := &Result{
		RaceCode:       raceCode,
		OddsSource:     source,
		OddsObservedAt: winSnap.ObservedAt,
		Confidence:     RaceConfidence(winProbabilities(horses)),
	}

	if winSnap.Empty() && placeSnap.Empty() {
		e.log.Warn().Str("race_code", raceCode).Msg("No odds data available")
		result.NoOddsData = true
		return result, nil
	}

	for _, h := range horses {
		if rec, ok := evaluate(h, MarketWin, h.WinProbability, winSnap.Odds[h.Number]); ok {
			switch {
			case rec.ExpectedValue >= e.thresholds.StrongWin:
				result.StrongWin = append(result.StrongWin, rec)
			case rec.ExpectedValue >= e.thresholds.LooseWin:
				result.CandidateWin = append(result.CandidateWin, rec)
			}
			if h.Rank == 1 && rec.ExpectedValue >= e.thresholds.TopPick && result.TopPickWin == nil {
				pick := rec
				result.TopPickWin = &pick
			}
		}

		if rec, ok := evaluate(h, MarketPlace, h.PlaceProbability, placeSnap.Odds[h.Number]); ok {
			switch {
			case rec.ExpectedValue >= e.thresholds.StrongPlace:
				result.StrongPlace = append(result.StrongPlace, rec)
			case rec.ExpectedValue >= e.thresholds.LoosePlace:
				result.CandidatePlace = append(result.CandidatePlace, rec)
			}
			if h.Rank == 1 && rec.ExpectedValue >= e.thresholds.TopPick && result.TopPickPlace == nil {
				pick := rec
				result.TopPickPlace = &pick
			}
		}
	}

	// Stable sort: equal EV keeps input ranking order.
	sortByExpectedValue(result.StrongWin)
	sortByExpectedValue(result.StrongPlace)
	sortByExpectedValue(result.CandidateWin)
	sortByExpectedValue(result.CandidatePlace)

	e.log.Info().
		Str("race_code", raceCode).
		Str("odds_source", string(source)).
		Float64("confidence", result.Confidence).
		Int("strong_win", len(result.StrongWin)).
		Int("candidate_win", len(result.CandidateWin)).
		Int("strong_place", len(result.StrongPlace)).
		Int("candidate_place", len(result.CandidatePlace)).
		Msg("Recommendations computed")

	return result, nil
}

// evaluate builds a recommendation for one horse in one market. Returns
// false when the horse does not participate in the market's computation.
func evaluate(h RankedHorse, market Market, probability, odds float64) (Recommendation, bool) {
	if odds <= 0 || probability <= 0 {
		return Recommendation{}, false
	}

	return Recommendation{
		HorseNumber:   h.Number,
		HorseName:     h.Name,
		Market:        market,
		Probability:   probability,
		Odds:          odds,
		ExpectedValue: probability * odds,
		Rank:          h.Rank,
	}, true
}

func sortByExpectedValue(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ExpectedValue > recs[j].ExpectedValue
	})
}

func winProbabilities(horses []RankedHorse) []float64 {
	probs := make([]float64, 0, len(horses))
	for _, h := range horses {
		probs = append(probs, h.WinProbability)
	}
	return probs
}
