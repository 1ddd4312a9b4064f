package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkohno/raceday/internal/config"
	"github.com/tkohno/raceday/internal/modules/autopredict"
)

func newTestServer(adminToken string) (*Server, *autopredict.State) {
	state := autopredict.NewState()
	cfg := &config.Config{
		AdminToken:     adminToken,
		CheckInterval:  3 * time.Minute,
		FinalLead:      60 * time.Minute,
		FinalTolerance: 8 * time.Minute,
	}

	srv := New(Config{
		Port:   0,
		Log:    zerolog.Nop(),
		Config: cfg,
		State:  state,
	})

	return srv, state
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer("")

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSchedulerStatus_RequiresToken(t *testing.T) {
	srv, state := newTestServer("secret")
	state.MarkFinal("r1")
	state.MarkFinal("r2")
	state.MarkInitial("r3")

	// Missing token.
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil)
	req.Header.Set("X-Admin-Token", "guess")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"final_predictions_fired":2`)
	assert.Contains(t, rec.Body.String(), `"initial_predictions_fired":1`)
}

func TestSchedulerAdmin_DisabledWithoutConfiguredToken(t *testing.T) {
	srv, _ := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil)
	req.Header.Set("X-Admin-Token", "")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSchedulerReset(t *testing.T) {
	srv, state := newTestServer("secret")
	state.MarkFinal("r1")
	state.MarkInitial("r2")

	req := httptest.NewRequest(http.MethodPost, "/api/scheduler/reset", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	final, initial := state.Counts()
	assert.Zero(t, final)
	assert.Zero(t, initial)

	// Idempotent: a second reset succeeds on empty state.
	req = httptest.NewRequest(http.MethodPost, "/api/scheduler/reset", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
