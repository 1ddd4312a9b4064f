package recommend

import "time"

// Market identifies a betting market.
type Market string

const (
	MarketWin   Market = "win"
	MarketPlace Market = "place"
)

// OddsSource selects which odds snapshot backs a recommendation run.
type OddsSource string

const (
	// OddsSourceLive uses the newest time-series observation batch.
	OddsSourceLive OddsSource = "live"
	// OddsSourceFinal uses the settled post-race odds.
	OddsSourceFinal OddsSource = "final"
)

// OddsSnapshot maps horse numbers to true decimal odds for one market.
// A horse absent from the map is treated as having odds 0.
type OddsSnapshot struct {
	Source     OddsSource
	ObservedAt *time.Time // set for live snapshots only
	Odds       map[int]float64
}

// Empty reports whether the snapshot carries no usable odds.
func (s OddsSnapshot) Empty() bool {
	return len(s.Odds) == 0
}

// RankedHorse is one entry of the upstream model's ranking for a race.
// Rank 1 is the model's most likely winner.
type RankedHorse struct {
	Number           int
	Name             string
	Rank             int
	WinProbability   float64
	PlaceProbability float64
}

// Recommendation is a single bet suggestion. Ephemeral: recomputed on every
// pipeline run, never persisted.
type Recommendation struct {
	HorseNumber   int     `json:"horseNumber"`
	HorseName     string  `json:"horseName"`
	Market        Market  `json:"market"`
	Probability   float64 `json:"probability"`
	Odds          float64 `json:"odds"`
	ExpectedValue float64 `json:"expectedValue"`
	Rank          int     `json:"rank"`
}

// Result holds the tiered recommendations for one race, with provenance so
// downstream formatting can disclose odds freshness.
type Result struct {
	RaceCode string `json:"raceCode"`

	StrongWin      []Recommendation `json:"strongWin"`
	StrongPlace    []Recommendation `json:"strongPlace"`
	CandidateWin   []Recommendation `json:"candidateWin"`
	CandidatePlace []Recommendation `json:"candidatePlace"`

	// First-encountered rank-1 horse with EV at or above the top-pick
	// threshold, per market. Nil when no horse qualifies.
	TopPickWin   *Recommendation `json:"topPickWin,omitempty"`
	TopPickPlace *Recommendation `json:"topPickPlace,omitempty"`

	OddsSource     OddsSource `json:"oddsSource"`
	OddsObservedAt *time.Time `json:"oddsObservedAt,omitempty"`

	// Confidence is the model-concentration score for the race, see
	// confidence.go. Informational only; it never moves thresholds.
	Confidence float64 `json:"confidence"`

	// NoOddsData marks a run where both snapshots were empty. The result
	// is still valid and actionable (empty), not an error.
	NoOddsData bool `json:"noOddsData"`
}

// Thresholds configures the EV tiers. Fixed per engine instance.
type Thresholds struct {
	StrongWin   float64
	StrongPlace float64
	LooseWin    float64
	LoosePlace  float64
	TopPick     float64
}

// DefaultThresholds returns the backtested defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongWin:   1.5,
		StrongPlace: 1.5,
		LooseWin:    1.2,
		LoosePlace:  1.2,
		TopPick:     1.0,
	}
}
