package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StreamLogs follows a container's log output over chunked plain text. The
// container is resolved before any body byte is written so a missing
// container still yields a 404 instead of a broken stream.
func (s *ApiService) StreamLogs(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	src, err := host.FollowLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer src.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	s.Relay.Chunks(r.Context(), w, src)
}

// StreamFile tails a file inside a running container.
func (s *ApiService) StreamFile(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	path := r.URL.Query().Get("log_path")
	if path == "" {
		http.Error(w, "missing required query parameter: log_path", http.StatusBadRequest)
		return
	}

	src, err := host.FollowFile(r.Context(), chi.URLParam(r, "id"), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer src.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	s.Relay.Chunks(r.Context(), w, src)
}

// StreamLogsWS relays a container's log output over a websocket.
func (s *ApiService) StreamLogsWS(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	src, err := host.FollowLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer src.Close()

	s.Relay.Websocket(r.Context(), w, r, src)
}
