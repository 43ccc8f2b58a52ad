package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/secrets"
)

type SecretsHandler struct {
	Config func() config.Config // live config, the IMAP account depends on it
	Store  func(cfg config.Config, name, value string) error
}

type setSecretReq struct {
	Value string `json:"value"`
}

func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !secrets.Known(name) {
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret "+name)
		return
	}
	var req setSecretReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.Store(h.Config(), name, req.Value); err != nil {
		WriteError(w, r, http.StatusBadRequest, "secret_not_stored", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
