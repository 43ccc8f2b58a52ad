package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Store LeadStore
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.CountByStatus(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"time":  time.Now().UTC().Format(time.RFC3339),
		"leads": counts,
	})
}
