package racecard

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tkohno/raceday/internal/clients/predictor"
)

// EventLister lists scheduled races for a calendar date. Satisfied by the
// predictor client.
type EventLister interface {
	ListEvents(ctx context.Context, date string) ([]predictor.Event, error)
}

// Service is the day-card index: it lists races for a date and enforces
// strict date matching against upstream data-quality drift.
type Service struct {
	events  EventLister
	dropped prometheus.Counter
	log     zerolog.Logger
}

// NewService creates a racecard service. dropped counts date-mismatched
// entries for diagnostics; it may be nil in tests.
func NewService(events EventLister, dropped prometheus.Counter, log zerolog.Logger) *Service {
	return &Service{
		events:  events,
		dropped: dropped,
		log:     log.With().Str("module", "racecard").Logger(),
	}
}

// ListForDate returns the races scheduled for the given ISO date, plus the
// number of entries dropped because their own reported date disagreed with
// the requested one. Dropped entries are diagnostics, never an error.
func (s *Service) ListForDate(ctx context.Context, date string) ([]Race, int, error) {
	events, err := s.events.ListEvents(ctx, date)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list races for %s: %w", date, err)
	}

	races := make([]Race, 0, len(events))
	dropped := 0
	for _, ev := range events {
		if ev.Date != date {
			dropped++
			s.log.Warn().
				Str("race_id", ev.ID).
				Str("requested_date", date).
				Str("reported_date", ev.Date).
				Msg("Dropping race with mismatched date")
			continue
		}

		races = append(races, Race{
			ID:     ev.ID,
			Date:   ev.Date,
			Time:   ev.Time,
			Venue:  ev.Venue,
			Number: ev.SequenceNumber,
			Name:   ev.Name,
		})
	}

	if dropped > 0 && s.dropped != nil {
		s.dropped.Add(float64(dropped))
	}

	s.log.Debug().Str("date", date).Int("count", len(races)).Int("dropped", dropped).
		Msg("Racecard listed")

	return races, dropped, nil
}
