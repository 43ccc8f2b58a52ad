package httpapi

import (
	"errors"
	"net/http"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/enrich"
)

type EnrichHandler struct {
	Cache  enrich.Cache
	Config func() config.Config
}

// Lookup builds a client from the live config so an edited base_url takes
// effect without a restart.
func (h EnrichHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	d := r.URL.Query().Get("domain")
	if d == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_domain", "domain is required")
		return
	}

	res, err := enrich.New(h.Config(), h.Cache).Lookup(r.Context(), d)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, res)
	case errors.Is(err, enrich.ErrBadDomain):
		WriteError(w, r, http.StatusBadRequest, "bad_domain", err.Error())
	case errors.Is(err, enrich.ErrNotConfigured):
		WriteError(w, r, http.StatusServiceUnavailable, "not_configured", err.Error())
	case errors.Is(err, enrich.ErrUpstream):
		WriteError(w, r, http.StatusBadGateway, "upstream_error", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
