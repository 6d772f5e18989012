package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/logger"
)

// writeError maps the error taxonomy to a status code exactly once, here at
// the HTTP boundary. The upstream diagnostic text is the response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	status := http.StatusInternalServerError
	if errors.Is(err, docker.ErrNotFound) {
		status = http.StatusNotFound
	}

	if status >= 500 {
		log.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		log.InfoContext(r.Context(), "request rejected", "status", status, "error", err)
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.FromContext(r.Context())
		log.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func messageResponse(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, r, map[string]string{"message": msg})
}
