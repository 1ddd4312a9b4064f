package server

import (
	"crypto/subtle"
	"net/http"
)

// adminOnly gates scheduler administration behind the configured token.
// With no token configured, administration is disabled outright rather
// than left open.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			s.writeError(w, http.StatusForbidden, "admin operations disabled: no admin token configured")
			return
		}

		token := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleSchedulerStatus reports fired counts and the active window settings.
// Idempotent: reading state changes nothing.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	final, initial := s.state.Counts()

	response := map[string]interface{}{
		"final_predictions_fired":   final,
		"initial_predictions_fired": initial,
		"check_interval_minutes":    s.cfg.CheckInterval.Minutes(),
		"final_lead_minutes":        s.cfg.FinalLead.Minutes(),
		"final_tolerance_minutes":   s.cfg.FinalTolerance.Minutes(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSchedulerReset clears the fired set. Every race becomes eligible
// again, including races still inside their window, which will re-fire on
// the next tick. Operator recovery only.
func (s *Server) handleSchedulerReset(w http.ResponseWriter, r *http.Request) {
	s.state.Reset()
	s.log.Info().Msg("Scheduler state reset")

	final, initial := s.state.Counts()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"reset":                     true,
		"final_predictions_fired":   final,
		"initial_predictions_fired": initial,
	})
}
