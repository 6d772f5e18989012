package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dockwatch/dockwatch/lib/docker"
)

// ListContainers lists all containers on the local host.
func (s *ApiService) ListContainers(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	containers, err := host.ListContainers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"containers": containers})
}

// InspectContainer returns the full `docker inspect` record.
func (s *ApiService) InspectContainer(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	record, err := host.InspectContainer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, record)
}

func (s *ApiService) StartContainer(w http.ResponseWriter, r *http.Request) {
	s.containerControl(w, r, "started", docker.Host.StartContainer)
}

func (s *ApiService) StopContainer(w http.ResponseWriter, r *http.Request) {
	s.containerControl(w, r, "stopped", docker.Host.StopContainer)
}

func (s *ApiService) RestartContainer(w http.ResponseWriter, r *http.Request) {
	s.containerControl(w, r, "restarted", docker.Host.RestartContainer)
}

// RemoveContainer removes a container, optionally forcing a running one.
func (s *ApiService) RemoveContainer(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	id := chi.URLParam(r, "id")
	if err := host.RemoveContainer(r.Context(), id, forceParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Container %s removed.", id))
}

func (s *ApiService) containerControl(w http.ResponseWriter, r *http.Request, verb string, op func(docker.Host, context.Context, string) error) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	id := chi.URLParam(r, "id")
	if err := op(host, r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Container %s %s.", id, verb))
}

// localHost acquires a handle to the local daemon, reporting the connection
// failure itself when the daemon is unreachable.
func (s *ApiService) localHost(w http.ResponseWriter, r *http.Request) (docker.Host, bool) {
	host, err := s.Local(r.Context())
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return host, true
}

func forceParam(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	return force
}
