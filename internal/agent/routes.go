package agent

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rostersync "github.com/marcus/roster/internal/sync"
)

// Error code constants for structured API error responses.
const (
	ErrCodeInternal = "internal"
)

// APIError represents a structured error returned by the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError for JSON serialization.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	rostersync.Snapshot
	LastSync *LastSync `json:"last_sync,omitempty"`
}

// Handler builds the agent's HTTP routes.
func (a *Agent) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	r.Get("/status", a.handleStatus)
	r.Post("/sync", a.handleSync)
	r.Post("/purge", a.handlePurge)
	if a.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.cfg.Metrics)
	}
	return r
}

func (a *Agent) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Agent) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := a.reporter.Snapshot(r.Context())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, StatusResponse{Snapshot: snap, LastSync: a.Last()})
}

// handleSync runs a sync inline. Remote failures map to 502, a failed mark
// after acceptance to 500.
func (a *Agent) handleSync(w http.ResponseWriter, r *http.Request) {
	out, err := a.syncOnce(r.Context(), TriggerManual)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	status := http.StatusOK
	switch out.Kind {
	case rostersync.OutcomeRemoteRejected:
		status = http.StatusBadGateway
	case rostersync.OutcomePartialFailure:
		status = http.StatusInternalServerError
	}
	a.writeJSON(w, status, out)
}

func (a *Agent) handlePurge(w http.ResponseWriter, r *http.Request) {
	out, err := a.purger.PurgeSynchronized(r.Context())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, out)
}

// writeError writes a JSON error response with the given HTTP status code.
func (a *Agent) writeError(w http.ResponseWriter, status int, code, message string) {
	a.writeJSON(w, status, ErrorResponse{Error: APIError{Code: code, Message: message}})
}

// writeJSON writes a JSON response with the given HTTP status code.
func (a *Agent) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("write json response", "err", err)
	}
}
