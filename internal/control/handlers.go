// File: internal/control/handlers.go
package control

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/engine"
)

// handlers maps the HTTP API onto the engine controller.
type handlers struct {
	log  *zap.Logger
	ctrl *engine.Controller
}

func newHandlers(logger *zap.Logger, ctrl *engine.Controller) *handlers {
	return &handlers{
		log:  logger.Named("handlers"),
		ctrl: ctrl,
	}
}

func (h *handlers) registerRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/type", h.handleType)
		r.Post("/stop", h.handleStop)
		r.Post("/pause", h.handlePause)
		r.Get("/status", h.handleStatus)
		r.Post("/config", h.handleConfig)
		r.Get("/log", h.handleLog)
	})
}

func (h *handlers) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// typeRequest starts a typing session. An optional wpm overrides the
// configured rate for this and subsequent sessions.
type typeRequest struct {
	Text string `json:"text"`
	WPM  *int   `json:"wpm,omitempty"`
}

func (h *handlers) handleType(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.WPM != nil {
		h.ctrl.SetLiveRate(*req.WPM)
	}

	// The session outlives this request: it keeps the request's values but
	// must not die when the handler returns and the server cancels r.Context().
	err := h.ctrl.Start(context.WithoutCancel(r.Context()), req.Text)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrBusy):
		h.respondWithError(w, http.StatusConflict, "a session is already active")
		return
	case errors.Is(err, engine.ErrEmptyInput):
		h.respondWithError(w, http.StatusBadRequest, "no typeable text after preprocessing")
		return
	case errors.Is(err, engine.ErrSinkUnavailable):
		h.respondWithError(w, http.StatusServiceUnavailable, "keystroke sink is not available")
		return
	default:
		h.log.Error("Failed to start session", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	st := h.ctrl.Status()
	h.log.Info("Session started",
		zap.String("session_id", st.SessionID), zap.Int("length", st.Length))
	h.respondWithSuccess(w, http.StatusAccepted, st)
}

func (h *handlers) handleStop(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Stop()
	h.respondWithSuccess(w, http.StatusOK, map[string]string{"message": "stop requested"})
}

func (h *handlers) handlePause(w http.ResponseWriter, r *http.Request) {
	state, err := h.ctrl.TogglePause()
	if errors.Is(err, engine.ErrNotRunning) {
		h.respondWithError(w, http.StatusConflict, "no active session")
		return
	}
	h.respondWithSuccess(w, http.StatusOK, map[string]string{"state": string(state)})
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.respondWithSuccess(w, http.StatusOK, h.ctrl.Status())
}

// configRequest is a partial update: only supplied fields change. A preset
// name expands to its field set first, then explicit fields override it.
type configRequest struct {
	Preset string `json:"preset,omitempty"`
	config.TypingPatch
	KeylogEnabled *bool `json:"keylogEnabled,omitempty"`
}

func (h *handlers) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	changed := false
	if req.Preset != "" {
		patch, err := config.Preset(req.Preset)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		changed = h.ctrl.UpdateConfig(patch) || changed
	}
	changed = h.ctrl.UpdateConfig(req.TypingPatch) || changed

	if req.KeylogEnabled != nil && *req.KeylogEnabled != h.ctrl.KeylogEnabled() {
		h.ctrl.SetKeylogEnabled(*req.KeylogEnabled)
		changed = true
	}

	if !changed {
		h.respondWithError(w, http.StatusBadRequest, "no settings changed")
		return
	}
	h.log.Info("Config updated", zap.String("preset", req.Preset))
	h.respondWithSuccess(w, http.StatusOK, map[string]string{"message": "config updated"})
}

func (h *handlers) handleLog(w http.ResponseWriter, r *http.Request) {
	entries := h.ctrl.ReadLog()
	if entries == nil {
		h.respondWithError(w, http.StatusNotFound, "keystroke log is disabled")
		return
	}
	h.respondWithSuccess(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// apiResponse is the envelope for every JSON reply.
type apiResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (h *handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, apiResponse{Status: "error", Error: message})
}

func (h *handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.writeJSON(w, statusCode, apiResponse{Status: "success", Data: data})
}

func (h *handlers) writeJSON(w http.ResponseWriter, statusCode int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
