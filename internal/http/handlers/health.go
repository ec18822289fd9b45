package handlers

import (
	"net/http"

	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/store"
)

// Health reports liveness and whether the credential store answers.
type Health struct {
	Store store.CredentialStore
}

func (h *Health) Healthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			logger.From(r.Context()).Warn("store ping failed", logger.Err(err))
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]string{"status": status})
}
