package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Routes builds the full API routing tree. Image and volume identifiers are
// wildcard params because image references contain slashes and colons, which
// chi path params cannot carry.
func (s *ApiService) Routes() chi.Router {
	r := chi.NewRouter()

	// The API is consumed cross-origin by a browser UI.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/containers", func(r chi.Router) {
			r.Get("/", s.ListContainers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/inspect", s.InspectContainer)
				r.Post("/start", s.StartContainer)
				r.Post("/stop", s.StopContainer)
				r.Post("/restart", s.RestartContainer)
				r.Delete("/", s.RemoveContainer)
				r.Get("/logs/stdout", s.StreamLogs)
				r.Get("/logs/file", s.StreamFile)
				r.Get("/logs/ws", s.StreamLogsWS)
			})
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", s.ListImages)
			r.Get("/download-all", s.DownloadAllImages)
			r.Get("/download-individual", s.DownloadIndividualImages)
			r.Get("/download/*", s.DownloadImage)
			r.Post("/*", s.RunImage)
			r.Delete("/*", s.RemoveImage)
		})

		r.Route("/volumes", func(r chi.Router) {
			r.Get("/", s.ListVolumes)
			r.Delete("/*", s.RemoveVolume)
		})

		r.Route("/remote", func(r chi.Router) {
			r.Route("/containers", func(r chi.Router) {
				r.Post("/", s.RemoteListContainers)
				r.Route("/{id}", func(r chi.Router) {
					r.Post("/inspect", s.RemoteInspectContainer)
					r.Post("/start", s.RemoteStartContainer)
					r.Post("/stop", s.RemoteStopContainer)
					r.Post("/restart", s.RemoteRestartContainer)
					r.Delete("/", s.RemoteRemoveContainer)
					r.Post("/logs/stdout", s.RemoteStreamLogs)
					r.Post("/logs/file", s.RemoteStreamFile)
				})
			})

			r.Route("/images", func(r chi.Router) {
				r.Post("/", s.RemoteListImages)
				r.Post("/download-all", s.RemoteDownloadAllImages)
				r.Post("/download-individual", s.RemoteDownloadIndividualImages)
				r.Post("/download/*", s.RemoteDownloadImage)
				r.Post("/*", s.RemoteRunImage)
				r.Delete("/*", s.RemoteRemoveImage)
			})

			r.Route("/volumes", func(r chi.Router) {
				r.Post("/", s.RemoteListVolumes)
				r.Delete("/*", s.RemoteRemoveVolume)
			})
		})
	})

	return r
}
