// Package notify renders prediction results into chat messages. The timing
// and recommendation core only produces structured values; every piece of
// human-readable formatting lives here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkohno/raceday/internal/modules/autopredict"
	"github.com/tkohno/raceday/internal/modules/recommend"
)

// DiscordNotifier sends prediction notifications to a Discord channel via
// webhook. An empty webhook URL is a valid configuration: delivery is
// skipped while predictions keep running.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	log        zerolog.Logger
}

// NewDiscordNotifier creates a Discord webhook notifier.
func NewDiscordNotifier(webhookURL string, timeout time.Duration, log zerolog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("module", "notify").Logger(),
	}
}

// Publish implements autopredict.Notifier.
func (n *DiscordNotifier) Publish(ctx context.Context, notification autopredict.Notification) error {
	if n.webhookURL == "" {
		n.log.Warn().Str("race_id", notification.Race.ID).
			Msg("No webhook configured, skipping notification")
		return nil
	}

	payload := map[string]string{
		"content": formatNotification(notification),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.log.Info().Str("race_id", notification.Race.ID).Msg("Notification sent")
	return nil
}

const messageLimit = 2000 // Discord message cap

func formatNotification(n autopredict.Notification) string {
	var sb strings.Builder

	race := n.Race
	if n.IsFinal {
		sb.WriteString("🔥 **Final prediction** (weights confirmed)\n")
	} else {
		sb.WriteString("🌙 **Early prediction** for tomorrow's card\n")
	}
	sb.WriteString(fmt.Sprintf("**%s %dR** %s %s\n", race.Venue, race.Number, race.Time, race.Name))

	recs := n.Recommendations
	if recs == nil || recs.NoOddsData {
		sb.WriteString("\nNo odds data available yet, no value bets to report.\n")
		return sb.String()
	}

	if recs.TopPickWin != nil {
		sb.WriteString(fmt.Sprintf("\n◎ Top pick: #%d %s (win EV %.2f)\n",
			recs.TopPickWin.HorseNumber, recs.TopPickWin.HorseName, recs.TopPickWin.ExpectedValue))
	} else if recs.TopPickPlace != nil {
		sb.WriteString(fmt.Sprintf("\n◎ Top pick: #%d %s (place EV %.2f)\n",
			recs.TopPickPlace.HorseNumber, recs.TopPickPlace.HorseName, recs.TopPickPlace.ExpectedValue))
	}

	writeTier(&sb, "💰 Strong win bets", recs.StrongWin)
	writeTier(&sb, "💰 Strong place bets", recs.StrongPlace)
	writeTier(&sb, "📝 Win candidates", recs.CandidateWin)
	writeTier(&sb, "📝 Place candidates", recs.CandidatePlace)

	sb.WriteString("\n")
	switch {
	case recs.OddsSource == recommend.OddsSourceLive && recs.OddsObservedAt != nil:
		sb.WriteString(fmt.Sprintf("_live odds as of %s, model confidence %.0f%%_\n",
			recs.OddsObservedAt.Format("15:04"), recs.Confidence*100))
	case recs.OddsSource == recommend.OddsSourceLive:
		sb.WriteString(fmt.Sprintf("_live odds, model confidence %.0f%%_\n", recs.Confidence*100))
	default:
		sb.WriteString(fmt.Sprintf("_final odds, model confidence %.0f%%_\n", recs.Confidence*100))
	}

	message := sb.String()
	if len(message) > messageLimit {
		message = message[:messageLimit-10] + "\n..."
	}

	return message
}

func writeTier(sb *strings.Builder, title string, recs []recommend.Recommendation) {
	if len(recs) == 0 {
		return
	}

	sb.WriteString("\n" + title + "\n")
	for _, rec := range recs {
		sb.WriteString(fmt.Sprintf("  #%d %s  EV %.2f (p %.1f%% × %.1f)\n",
			rec.HorseNumber, rec.HorseName, rec.ExpectedValue, rec.Probability*100, rec.Odds))
	}
}
