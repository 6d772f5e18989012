package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockwatch/dockwatch/lib/docker"
)

func TestListContainers_EmptyIsSliceNotNull(t *testing.T) {
	host := &fakeHost{
		listContainers: func(ctx context.Context) ([]docker.ContainerSummary, error) {
			return []docker.ContainerSummary{}, nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"containers": []}`, rec.Body.String())
	assert.Equal(t, 1, host.closed)
}

func TestListContainers(t *testing.T) {
	host := &fakeHost{
		listContainers: func(ctx context.Context) ([]docker.ContainerSummary, error) {
			return []docker.ContainerSummary{
				{ID: "abc123def456", Name: "web", Status: "Up 2 hours", Image: "nginx:latest"},
			}, nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Containers []docker.ContainerSummary `json:"containers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Containers, 1)
	assert.Equal(t, "web", body.Containers[0].Name)
}

func TestInspectContainer_UnknownIs404WithID(t *testing.T) {
	host := &fakeHost{
		inspectContainer: func(ctx context.Context, id string) (map[string]any, error) {
			return nil, fmt.Errorf("%w: container %s", docker.ErrNotFound, id)
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers/deadbeef/inspect", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "deadbeef")
}

func TestInspectContainer(t *testing.T) {
	host := &fakeHost{
		inspectContainer: func(ctx context.Context, id string) (map[string]any, error) {
			return map[string]any{"Id": id, "State": map[string]any{"Running": true}}, nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers/abc123/inspect", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var record map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "abc123", record["Id"])
}

func TestStartContainer(t *testing.T) {
	var started string
	host := &fakeHost{
		startContainer: func(ctx context.Context, id string) error {
			started = id
			return nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/containers/abc123/start", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", started)
	assert.JSONEq(t, `{"message": "Container abc123 started."}`, rec.Body.String())
}

func TestStopContainer_AlreadyStoppedStillSucceeds(t *testing.T) {
	host := &fakeHost{
		stopContainer: func(ctx context.Context, id string) error {
			// The engine treats stopping a stopped container as a no-op.
			return nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/containers/abc123/stop", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Container abc123 stopped."}`, rec.Body.String())
}

func TestRestartContainer_Failure(t *testing.T) {
	host := &fakeHost{
		restartContainer: func(ctx context.Context, id string) error {
			return &docker.OperationError{Op: "restart " + id, Detail: "driver failure"}
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/containers/abc123/restart", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "driver failure")
}

func TestRemoveContainer_ForceQueryParam(t *testing.T) {
	var gotForce bool
	host := &fakeHost{
		removeContainer: func(ctx context.Context, id string, force bool) error {
			gotForce = force
			return nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodDelete, "/api/containers/abc123?force=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotForce)
}

func TestRemoveContainer_AlreadyRemovedIs404(t *testing.T) {
	host := &fakeHost{
		removeContainer: func(ctx context.Context, id string, force bool) error {
			return fmt.Errorf("%w: container %s", docker.ErrNotFound, id)
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodDelete, "/api/containers/gone123", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "gone123")
}

func TestStreamLogs(t *testing.T) {
	host := &fakeHost{
		followLogs: func(ctx context.Context, id string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("line one\nline two\n")), nil
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers/abc123/logs/stdout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "line one\nline two\n", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestStreamLogs_UnknownContainer(t *testing.T) {
	host := &fakeHost{
		followLogs: func(ctx context.Context, id string) (io.ReadCloser, error) {
			return nil, fmt.Errorf("%w: container %s", docker.ErrNotFound, id)
		},
	}
	s := newTestService(t, host)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers/nope/logs/stdout", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamFile_RequiresLogPath(t *testing.T) {
	s := newTestService(t, &fakeHost{})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/containers/abc123/logs/file", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "log_path")
}
