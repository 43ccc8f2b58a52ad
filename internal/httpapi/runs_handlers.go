package httpapi

import (
	"errors"
	"net/http"

	"leadscout-engine/internal/poll"
)

type RunsHandler struct {
	Pipeline Pipeline
}

func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Pipeline.Status())
}

// Discover starts a background run and answers before it finishes.
func (h RunsHandler) Discover(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode != "" && !poll.ValidMode(mode) {
		WriteError(w, r, http.StatusBadRequest, "invalid_mode", "mode must be full, legacy or queries")
		return
	}

	id, err := h.Pipeline.Trigger(mode)
	if errors.Is(err, poll.ErrRunInProgress) {
		WriteError(w, r, http.StatusConflict, "run_in_progress", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "trigger_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "run_id": id})
}

func (h RunsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Pipeline.LatestSummary(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if sum == nil {
		WriteError(w, r, http.StatusNotFound, "no_runs", "no run has finished yet")
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}
