package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkohno/raceday/internal/modules/recommend"
)

// oddsScale is the storage scale factor: raw odds rows hold the decimal
// odds multiplied by 10, so 4.5 is stored as 45.
const oddsScale = 10.0

// observedAtLayout is the format of the observation marker column. The
// marker only needs to compare monotonically; lexicographic order of this
// layout matches chronological order.
const observedAtLayout = "2006-01-02T15:04:05"

// OddsRepository reads win and place odds snapshots for a race. Each call
// runs its own bounded query; nothing is cached between calls.
type OddsRepository struct {
	db      *sql.DB
	timeout time.Duration
	log     zerolog.Logger
}

// NewOddsRepository creates a new odds repository.
func NewOddsRepository(db *sql.DB, timeout time.Duration, log zerolog.Logger) *OddsRepository {
	return &OddsRepository{
		db:      db,
		timeout: timeout,
		log:     log.With().Str("repository", "odds").Logger(),
	}
}

// WinOdds returns the win-market snapshot for a race.
func (r *OddsRepository) WinOdds(ctx context.Context, raceCode string, source recommend.OddsSource) (recommend.OddsSnapshot, error) {
	return r.snapshot(ctx, raceCode, source, "win_odds_ticks", "win_odds_final")
}

// PlaceOdds returns the place-market snapshot for a race.
func (r *OddsRepository) PlaceOdds(ctx context.Context, raceCode string, source recommend.OddsSource) (recommend.OddsSnapshot, error) {
	return r.snapshot(ctx, raceCode, source, "place_odds_ticks", "place_odds_final")
}

func (r *OddsRepository) snapshot(ctx context.Context, raceCode string, source recommend.OddsSource, ticksTable, finalTable string) (recommend.OddsSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	switch source {
	case recommend.OddsSourceLive:
		return r.liveSnapshot(ctx, raceCode, ticksTable)
	case recommend.OddsSourceFinal:
		return r.finalSnapshot(ctx, raceCode, finalTable)
	default:
		return recommend.OddsSnapshot{}, fmt.Errorf("unknown odds source %q", source)
	}
}

// liveSnapshot returns the newest observation batch: all rows sharing the
// maximum observation marker for the race.
func (r *OddsRepository) liveSnapshot(ctx context.Context, raceCode, table string) (recommend.OddsSnapshot, error) {
	snap := recommend.OddsSnapshot{
		Source: recommend.OddsSourceLive,
		Odds:   map[int]float64{},
	}

	var marker sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(observed_at) FROM `+table+` WHERE race_code = ?`,
		raceCode,
	).Scan(&marker)
	if err != nil {
		return snap, fmt.Errorf("failed to find latest observation: %w", err)
	}

	if !marker.Valid {
		// No ticks recorded yet; a valid empty snapshot.
		return snap, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT horse_number, odds FROM `+table+` WHERE race_code = ? AND observed_at = ?`,
		raceCode, marker.String,
	)
	if err != nil {
		return snap, fmt.Errorf("failed to query live odds: %w", err)
	}
	defer rows.Close()

	if err := scanOdds(rows, snap.Odds); err != nil {
		return snap, err
	}

	if observed, err := time.ParseInLocation(observedAtLayout, marker.String, time.Local); err == nil {
		snap.ObservedAt = &observed
	} else {
		r.log.Warn().Str("race_code", raceCode).Str("observed_at", marker.String).
			Msg("Unparseable observation marker")
	}

	r.log.Debug().Str("race_code", raceCode).Str("table", table).
		Int("count", len(snap.Odds)).Msg("Live odds snapshot loaded")

	return snap, nil
}

func (r *OddsRepository) finalSnapshot(ctx context.Context, raceCode, table string) (recommend.OddsSnapshot, error) {
	snap := recommend.OddsSnapshot{
		Source: recommend.OddsSourceFinal,
		Odds:   map[int]float64{},
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT horse_number, odds FROM `+table+` WHERE race_code = ?`,
		raceCode,
	)
	if err != nil {
		return snap, fmt.Errorf("failed to query final odds: %w", err)
	}
	defer rows.Close()

	if err := scanOdds(rows, snap.Odds); err != nil {
		return snap, err
	}

	r.log.Debug().Str("race_code", raceCode).Str("table", table).
		Int("count", len(snap.Odds)).Msg("Final odds snapshot loaded")

	return snap, nil
}

// scanOdds normalizes raw storage units to true decimal odds and drops
// non-positive values.
func scanOdds(rows *sql.Rows, dst map[int]float64) error {
	for rows.Next() {
		var horseNumber int
		var raw int64
		if err := rows.Scan(&horseNumber, &raw); err != nil {
			return fmt.Errorf("failed to scan odds row: %w", err)
		}

		odds := float64(raw) / oddsScale
		if odds > 0 {
			dst[horseNumber] = odds
		}
	}

	return rows.Err()
}
