package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/remote"
)

const connectBody = `{"address": "10.0.0.5", "username": "ops", "password": "secret"}`

func TestRemoteListContainers(t *testing.T) {
	host := &fakeHost{
		listContainers: func(ctx context.Context) ([]docker.ContainerSummary, error) {
			return []docker.ContainerSummary{
				{ID: "abc123", Name: "web", Status: "Up 5 minutes", Image: "nginx:latest"},
			}, nil
		},
	}
	s := newTestService(t, host)

	req := httptest.NewRequest(http.MethodPost, "/api/remote/containers", strings.NewReader(connectBody))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc123")
	assert.Equal(t, 1, host.closed)
}

func TestRemote_BadBodyIs400(t *testing.T) {
	s := newTestService(t, &fakeHost{})

	req := httptest.NewRequest(http.MethodPost, "/api/remote/containers", strings.NewReader("{not json"))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestRemote_MissingCredentialsIs400(t *testing.T) {
	s := newTestService(t, &fakeHost{})

	req := httptest.NewRequest(http.MethodPost, "/api/remote/containers", strings.NewReader(`{"address": "10.0.0.5"}`))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is required")
}

func TestRemote_DialFailure(t *testing.T) {
	s := newTestService(t, &fakeHost{})
	s.Dial = func(ctx context.Context, params remote.ConnectParams) (docker.Host, error) {
		return nil, docker.ErrConnection
	}

	req := httptest.NewRequest(http.MethodPost, "/api/remote/containers", strings.NewReader(connectBody))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRemoteStartContainer(t *testing.T) {
	var started string
	host := &fakeHost{
		startContainer: func(ctx context.Context, id string) error {
			started = id
			return nil
		},
	}
	s := newTestService(t, host)

	req := httptest.NewRequest(http.MethodPost, "/api/remote/containers/abc123/start", strings.NewReader(connectBody))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", started)
	assert.JSONEq(t, `{"message": "Container abc123 started on remote."}`, rec.Body.String())
}

func TestRemoteRunImage(t *testing.T) {
	host := &fakeHost{
		runImage: func(ctx context.Context, ref string, opts docker.RunOptions) (string, error) {
			assert.Equal(t, "ghcr.io/acme/app:v1", ref)
			return "abc123def456", nil
		},
	}
	s := newTestService(t, host)

	req := httptest.NewRequest(http.MethodPost, "/api/remote/images/ghcr.io/acme/app:v1/run", strings.NewReader(connectBody))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc123def456")
	assert.Contains(t, rec.Body.String(), "on remote")
}

func TestRemoteRemoveVolume(t *testing.T) {
	var gotName string
	host := &fakeHost{
		removeVolume: func(ctx context.Context, name string, force bool) error {
			gotName = name
			return nil
		},
	}
	s := newTestService(t, host)

	req := httptest.NewRequest(http.MethodDelete, "/api/remote/volumes/pgdata", strings.NewReader(connectBody))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pgdata", gotName)
}
