package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dockwatch/dockwatch/cmd/api/config"
	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/remote"
	"github.com/dockwatch/dockwatch/lib/stream"
)

// fakeHost implements docker.Host through function fields so each test wires
// only the operations it exercises; anything unwired panics via the embedded
// nil interface.
type fakeHost struct {
	docker.Host

	listContainers   func(ctx context.Context) ([]docker.ContainerSummary, error)
	inspectContainer func(ctx context.Context, id string) (map[string]any, error)
	startContainer   func(ctx context.Context, id string) error
	stopContainer    func(ctx context.Context, id string) error
	restartContainer func(ctx context.Context, id string) error
	removeContainer  func(ctx context.Context, id string, force bool) error
	listImages       func(ctx context.Context) ([]docker.ImageSummary, error)
	removeImage      func(ctx context.Context, ref string, force bool) error
	runImage         func(ctx context.Context, ref string, opts docker.RunOptions) (string, error)
	listVolumes      func(ctx context.Context) ([]docker.VolumeSummary, error)
	removeVolume     func(ctx context.Context, name string, force bool) error
	followLogs       func(ctx context.Context, id string) (io.ReadCloser, error)
	saveImage        func(ctx context.Context, ref string) (io.ReadCloser, error)
	exportRefs       func(ctx context.Context) ([]string, error)
	saveImages       func(ctx context.Context, refs []string) (io.ReadCloser, error)

	closed int
}

func (f *fakeHost) ListContainers(ctx context.Context) ([]docker.ContainerSummary, error) {
	return f.listContainers(ctx)
}

func (f *fakeHost) InspectContainer(ctx context.Context, id string) (map[string]any, error) {
	return f.inspectContainer(ctx, id)
}

func (f *fakeHost) StartContainer(ctx context.Context, id string) error {
	return f.startContainer(ctx, id)
}

func (f *fakeHost) StopContainer(ctx context.Context, id string) error {
	return f.stopContainer(ctx, id)
}

func (f *fakeHost) RestartContainer(ctx context.Context, id string) error {
	return f.restartContainer(ctx, id)
}

func (f *fakeHost) RemoveContainer(ctx context.Context, id string, force bool) error {
	return f.removeContainer(ctx, id, force)
}

func (f *fakeHost) ListImages(ctx context.Context) ([]docker.ImageSummary, error) {
	return f.listImages(ctx)
}

func (f *fakeHost) RemoveImage(ctx context.Context, ref string, force bool) error {
	return f.removeImage(ctx, ref, force)
}

func (f *fakeHost) RunImage(ctx context.Context, ref string, opts docker.RunOptions) (string, error) {
	return f.runImage(ctx, ref, opts)
}

func (f *fakeHost) ListVolumes(ctx context.Context) ([]docker.VolumeSummary, error) {
	return f.listVolumes(ctx)
}

func (f *fakeHost) RemoveVolume(ctx context.Context, name string, force bool) error {
	return f.removeVolume(ctx, name, force)
}

func (f *fakeHost) FollowLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	return f.followLogs(ctx, id)
}

func (f *fakeHost) SaveImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	return f.saveImage(ctx, ref)
}

func (f *fakeHost) ExportRefs(ctx context.Context) ([]string, error) {
	return f.exportRefs(ctx)
}

func (f *fakeHost) SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error) {
	return f.saveImages(ctx, refs)
}

func (f *fakeHost) Close() error {
	f.closed++
	return nil
}

// newTestService wires the same fake behind both the local provider and the
// SSH dialer so local and remote endpoints exercise identical host behavior.
func newTestService(t *testing.T, host docker.Host) *ApiService {
	t.Helper()
	return &ApiService{
		Config: &config.Config{TempDir: t.TempDir()},
		Relay:  stream.New(nil),
		Local: func(ctx context.Context) (docker.Host, error) {
			return host, nil
		},
		Dial: func(ctx context.Context, params remote.ConnectParams) (docker.Host, error) {
			return host, nil
		},
	}
}

func doRequest(s *ApiService, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}
