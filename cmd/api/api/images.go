package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dockwatch/dockwatch/lib/docker"
)

// ListImages lists all images on the local host.
func (s *ApiService) ListImages(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	images, err := host.ListImages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"images": images})
}

// RunImage starts a detached container from an image reference. Image refs
// can contain slashes and colons, so the ref arrives as a wildcard path with
// a trailing /run segment stripped here rather than by the router.
func (s *ApiService) RunImage(w http.ResponseWriter, r *http.Request) {
	ref, ok := runImageRef(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	id, err := host.RunImage(r.Context(), ref, runOptions(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"message": fmt.Sprintf("Image %s is running.", ref),
		"id":      id,
	})
}

// RemoveImage removes an image by reference or ID.
func (s *ApiService) RemoveImage(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	ref := imageRef(r)
	if err := host.RemoveImage(r.Context(), ref, forceParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Image %s removed.", ref))
}

// imageRef extracts a multi-segment image reference from the wildcard route.
func imageRef(r *http.Request) string {
	return strings.Trim(chi.URLParam(r, "*"), "/")
}

// runImageRef extracts the reference from a run route, requiring the /run
// action suffix. Stripping happens only here so an image whose path merely
// ends in "run" is untouched on the delete and download routes.
func runImageRef(r *http.Request) (string, bool) {
	wild := chi.URLParam(r, "*")
	if !strings.HasSuffix(wild, "/run") {
		return "", false
	}
	return strings.Trim(strings.TrimSuffix(wild, "/run"), "/"), true
}

func runOptions(r *http.Request) docker.RunOptions {
	q := r.URL.Query()
	return docker.RunOptions{
		Name:     q.Get("name"),
		Platform: q.Get("platform"),
	}
}
