package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/export"
)

type LeadsHandler struct {
	Store  LeadStore
	Hub    *events.Hub
	CfgVal *atomic.Value // config.Config
}

// includeStale reads ?include_stale, falling back to run.include_stale.
func (h LeadsHandler) includeStale(r *http.Request) bool {
	if v := r.URL.Query().Get("include_stale"); v != "" {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	if h.CfgVal != nil {
		if cfg, ok := h.CfgVal.Load().(config.Config); ok {
			return cfg.Run.IncludeStale
		}
	}
	return false
}

func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Store.ListLeads(r.Context(), h.includeStale(r))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, export.Records(leads))
}

func (h LeadsHandler) CSV(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Store.ListLeads(r.Context(), h.includeStale(r))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	_ = export.WriteCSV(w, leads)
}

// leadID is the key after /api/leads/. chi matches on the escaped path when
// there is one, so the segment is unescaped here.
func leadID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", err.Error())
		return "", false
	}
	if id == "" {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such lead")
		return "", false
	}
	return id, true
}

func (h LeadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	l, err := h.Store.GetLead(r.Context(), id)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if l == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such lead")
		return
	}
	WriteJSON(w, http.StatusOK, export.RecordOf(*l))
}

type patchLeadReq struct {
	Status domain.Status `json:"status"`
}

// PatchStatus is operator triage: reject a lead or bring it back.
func (h LeadsHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req patchLeadReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Status != domain.StatusActive && req.Status != domain.StatusRejected {
		WriteError(w, r, http.StatusBadRequest, "invalid_status", `status must be "active" or "rejected"`)
		return
	}

	err := h.Store.SetStatus(r.Context(), id, req.Status)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such lead")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeLeadsUpdated, 1,
			map[string]string{"id": id, "status": string(req.Status)}))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "status": req.Status})
}
