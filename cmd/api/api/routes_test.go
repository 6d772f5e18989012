package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockwatch/dockwatch/lib/docker"
)

func TestCORS_SimpleRequest(t *testing.T) {
	host := &fakeHost{
		listContainers: func(ctx context.Context) ([]docker.ContainerSummary, error) {
			return []docker.ContainerSummary{}, nil
		},
	}
	s := newTestService(t, host)

	req := httptest.NewRequest(http.MethodGet, "/api/containers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestService(t, &fakeHost{})

	req := httptest.NewRequest(http.MethodOptions, "/api/containers/abc123", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}
