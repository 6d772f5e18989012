package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/export"
	"github.com/dockwatch/dockwatch/lib/logger"
)

// DownloadImage exports a single image as a gzip-compressed tarball.
func (s *ApiService) DownloadImage(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	ref := imageRef(r)
	s.exportSingle(w, r, host, ref, export.SafeMemberName(ref)+".tar.gz")
}

// DownloadAllImages exports every image on the local host as one
// gzip-compressed tarball.
func (s *ApiService) DownloadAllImages(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	s.exportAll(w, r, host, export.AllImagesSpooled, "all_docker_images.tar.gz")
}

// DownloadIndividualImages exports every image on the local host as one zip
// archive holding a separate tarball per image.
func (s *ApiService) DownloadIndividualImages(w http.ResponseWriter, r *http.Request) {
	host, ok := s.localHost(w, r)
	if !ok {
		return
	}
	defer host.Close()

	s.exportIndividual(w, r, host, "individual_docker_images.zip")
}

func (s *ApiService) exportSingle(w http.ResponseWriter, r *http.Request, host docker.Host, ref, filename string) {
	job := export.NewJob(s.Config.TempDir)
	defer job.Cleanup(r.Context())

	start := time.Now()
	result, err := export.SingleImage(r.Context(), job, host, ref)
	if err != nil {
		s.recordExport(r, "single", start, 0, false)
		writeError(w, r, err)
		return
	}
	s.recordExport(r, "single", start, result.Size, true)
	s.serveArchive(w, r, result, filename, "application/gzip")
}

func (s *ApiService) exportAll(w http.ResponseWriter, r *http.Request, host docker.Host, run func(ctx context.Context, job *export.Job, host docker.Host) (*export.Result, error), filename string) {
	job := export.NewJob(s.Config.TempDir)
	defer job.Cleanup(r.Context())

	start := time.Now()
	result, err := run(r.Context(), job, host)
	if err != nil {
		s.recordExport(r, "all", start, 0, false)
		writeError(w, r, err)
		return
	}
	s.recordExport(r, "all", start, result.Size, true)
	s.serveArchive(w, r, result, filename, "application/gzip")
}

func (s *ApiService) exportIndividual(w http.ResponseWriter, r *http.Request, host docker.Host, filename string) {
	job := export.NewJob(s.Config.TempDir)
	defer job.Cleanup(r.Context())

	start := time.Now()
	result, outcomes, err := export.IndividualImages(r.Context(), job, host)
	if err != nil {
		s.recordExport(r, "individual", start, 0, false)
		writeError(w, r, err)
		return
	}
	s.recordExport(r, "individual", start, result.Size, true)

	failed := lo.Filter(outcomes, func(o export.ItemOutcome, _ int) bool { return o.Failed() })
	if len(failed) > 0 {
		w.Header().Set("X-Export-Failed", strconv.Itoa(len(failed)))
		log := logger.FromContext(r.Context())
		log.WarnContext(r.Context(), "some images failed to export",
			"failed", len(failed), "total", len(outcomes),
			"refs", lo.Map(failed, func(o export.ItemOutcome, _ int) string { return o.Ref }))
	}
	s.serveArchive(w, r, result, filename, "application/zip")
}

// serveArchive sends a finished archive as an attachment. The file is served
// with http.ServeFile so range requests and Content-Length come for free; the
// Job owning the file cleans it up once the handler returns. Setting the
// Content-Type up front keeps ServeFile from sniffing one.
func (s *ApiService) serveArchive(w http.ResponseWriter, r *http.Request, result *export.Result, filename, contentType string) {
	log := logger.FromContext(r.Context())
	log.InfoContext(r.Context(), "serving export archive",
		"filename", filename,
		"size", datasize.ByteSize(result.Size).HumanReadable())

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(filename)))
	http.ServeFile(w, r, result.Path)
}

func (s *ApiService) recordExport(r *http.Request, mode string, start time.Time, size int64, success bool) {
	if s.Exports == nil {
		return
	}
	ctx := r.Context()
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", success),
	)
	s.Exports.ExportsTotal.Add(ctx, 1, attrs)
	s.Exports.ExportDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if size > 0 {
		s.Exports.ArchiveBytes.Add(ctx, size, attrs)
	}
}
