package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListVolumes lists all volumes on the local host.
func (s *ApiService) ListVolumes(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	volumes, err := host.ListVolumes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"volumes": volumes})
}

// RemoveVolume removes a volume by name.
func (s *ApiService) RemoveVolume(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	name := chi.URLParam(r, "*")
	if err := host.RemoveVolume(r.Context(), name, forceParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Volume %s removed.", name))
}
