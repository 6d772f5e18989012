package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/export"
	"github.com/dockwatch/dockwatch/lib/remote"
)

// remoteHost decodes SSH connection parameters from the request body and
// dials the remote host. Credentials travel only in the body, never in the
// URL, so every remote endpoint is a POST.
func (s *ApiService) remoteHost(w http.ResponseWriter, r *http.Request) (docker.Host, bool) {
	var params remote.ConnectParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return nil, false
	}
	if err := params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	host, err := s.Dial(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return host, true
}

// RemoteListContainers lists all containers on a remote host.
func (s *ApiService) RemoteListContainers(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
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

func (s *ApiService) RemoteInspectContainer(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
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

func (s *ApiService) RemoteStartContainer(w http.ResponseWriter, r *http.Request) {
	s.remoteContainerControl(w, r, "started", docker.Host.StartContainer)
}

func (s *ApiService) RemoteStopContainer(w http.ResponseWriter, r *http.Request) {
	s.remoteContainerControl(w, r, "stopped", docker.Host.StopContainer)
}

func (s *ApiService) RemoteRestartContainer(w http.ResponseWriter, r *http.Request) {
	s.remoteContainerControl(w, r, "restarted", docker.Host.RestartContainer)
}

func (s *ApiService) RemoteRemoveContainer(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	id := chi.URLParam(r, "id")
	if err := host.RemoveContainer(r.Context(), id, forceParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Container %s removed on remote.", id))
}

func (s *ApiService) remoteContainerControl(w http.ResponseWriter, r *http.Request, verb string, op func(docker.Host, context.Context, string) error) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	id := chi.URLParam(r, "id")
	if err := op(host, r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Container %s %s on remote.", id, verb))
}

// RemoteStreamLogs follows a remote container's log output.
func (s *ApiService) RemoteStreamLogs(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
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
	s.Relay.Lines(r.Context(), w, src)
}

// RemoteStreamFile tails a file inside a running remote container.
func (s *ApiService) RemoteStreamFile(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
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
	s.Relay.Lines(r.Context(), w, src)
}

// RemoteListImages lists all images on a remote host.
func (s *ApiService) RemoteListImages(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
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

// RemoteRunImage starts a detached container from an image on a remote host.
// Run options come from query parameters, same as the local endpoint; the
// body carries only the connection parameters.
func (s *ApiService) RemoteRunImage(w http.ResponseWriter, r *http.Request) {
	ref, ok := runImageRef(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	host, ok := s.remoteHost(w, r)
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
		"message": fmt.Sprintf("Image %s is running on remote.", ref),
		"id":      id,
	})
}

func (s *ApiService) RemoteRemoveImage(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	ref := imageRef(r)
	if err := host.RemoveImage(r.Context(), ref, forceParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Image %s removed on remote.", ref))
}

// RemoteListVolumes lists all volumes on a remote host.
func (s *ApiService) RemoteListVolumes(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
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

func (s *ApiService) RemoteRemoveVolume(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	name := chi.URLParam(r, "*")
	if err := host.RemoveVolume(r.Context(), name, forceParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	messageResponse(w, r, fmt.Sprintf("Volume %s removed on remote.", name))
}

// RemoteDownloadImage exports one image from a remote host.
func (s *ApiService) RemoteDownloadImage(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	ref := imageRef(r)
	s.exportSingle(w, r, host, ref, "remote_"+export.SafeMemberName(ref)+".tar.gz")
}

// RemoteDownloadAllImages exports every image on a remote host as one
// gzip-compressed tarball. The save output is compressed as it arrives over
// SSH, so nothing is spooled uncompressed.
func (s *ApiService) RemoteDownloadAllImages(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	s.exportAll(w, r, host, export.AllImagesStreamed, "remote_all_images.tar.gz")
}

// RemoteDownloadIndividualImages exports every image on a remote host as one
// zip archive with a separate tarball per image.
func (s *ApiService) RemoteDownloadIndividualImages(w http.ResponseWriter, r *http.Request) {
	host, ok := s.remoteHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	s.exportIndividual(w, r, host, "remote_individual_images.zip")
}
