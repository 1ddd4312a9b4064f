// Package predictor is the HTTP client for the prediction microservice,
// which owns the race calendar and the probability model.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Event is one scheduled race as reported by the listing endpoint.
type Event struct {
	ID             string `json:"id"`
	Date           string `json:"date"` // ISO date, e.g. 2026-08-25
	Time           string `json:"time"` // HH:MM or HHMM local start time
	Venue          string `json:"venue"`
	SequenceNumber int    `json:"sequenceNumber"`
	Name           string `json:"name"`
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

// GenerateRequest asks the service to run the model for one race.
type GenerateRequest struct {
	EventID string `json:"eventId"`
	IsFinal bool   `json:"isFinal"`
}

// RankedEntrant is one row of the model's ranking. Rank 1 is the most
// likely overall winner.
type RankedEntrant struct {
	Number           int     `json:"number"`
	Name             string  `json:"name"`
	Rank             int     `json:"rank"`
	WinProbability   float64 `json:"winProbability"`
	PlaceProbability float64 `json:"placeProbability"`
}

// Prediction is the generation response. PredictionID, EventCode, and
// RankedEntrants are required; the rest is display metadata the service
// may omit.
type Prediction struct {
	PredictionID   string          `json:"predictionId"`
	Venue          string          `json:"venue,omitempty"`
	SequenceNumber int             `json:"sequenceNumber,omitempty"`
	Time           string          `json:"time,omitempty"`
	Name           string          `json:"name,omitempty"`
	EventCode      string          `json:"eventCode"`
	RankedEntrants []RankedEntrant `json:"rankedEntrants"`
}

// Client is an HTTP client for the prediction microservice. Listing and
// generation carry distinct timeouts: listing is a cheap read, generation
// runs the model.
type Client struct {
	baseURL         string
	client          *http.Client
	listTimeout     time.Duration
	generateTimeout time.Duration
	log             zerolog.Logger
}

// New creates a new prediction service client.
func New(baseURL string, listTimeout, generateTimeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:         baseURL,
		client:          &http.Client{},
		listTimeout:     listTimeout,
		generateTimeout: generateTimeout,
		log:             log.With().Str("client", "predictor").Logger(),
	}
}

// ListEvents returns the races scheduled for the given ISO date.
func (c *Client) ListEvents(ctx context.Context, date string) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/events/date/%s", c.baseURL, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event listing failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("event listing returned status %d", resp.StatusCode)
	}

	var parsed eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode event listing: %w", err)
	}

	c.log.Debug().Str("date", date).Int("count", len(parsed.Events)).Msg("Events listed")

	return parsed.Events, nil
}

// Generate runs the prediction model for one race. Any non-2xx status is an
// error; callers treat it as retryable.
func (c *Client) Generate(ctx context.Context, eventID string, isFinal bool) (*Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	body, err := json.Marshal(GenerateRequest{EventID: eventID, IsFinal: isFinal})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := c.baseURL + "/predictions/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var prediction Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}

	if prediction.EventCode == "" {
		prediction.EventCode = eventID
	}

	c.log.Debug().
		Str("event_id", eventID).
		Str("prediction_id", prediction.PredictionID).
		Bool("is_final", isFinal).
		Int("entrants", len(prediction.RankedEntrants)).
		Msg("Prediction generated")

	return &prediction, nil
}
