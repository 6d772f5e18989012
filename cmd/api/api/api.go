package api

import (
	"context"

	"github.com/dockwatch/dockwatch/cmd/api/config"
	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/otel"
	"github.com/dockwatch/dockwatch/lib/remote"
	"github.com/dockwatch/dockwatch/lib/stream"
)

// ApiService holds everything the HTTP handlers need. Hosts are acquired per
// request through the two providers so tests can substitute fakes.
type ApiService struct {
	Config  *config.Config
	Relay   *stream.Relay
	Exports *otel.ExportMetrics

	// Local returns a handle to the local docker daemon.
	Local func(ctx context.Context) (docker.Host, error)
	// Dial returns a handle to a remote docker host over SSH.
	Dial func(ctx context.Context, params remote.ConnectParams) (docker.Host, error)
}

// New creates a new ApiService wired to the real local engine and SSH dialer.
func New(cfg *config.Config, relay *stream.Relay, exports *otel.ExportMetrics) *ApiService {
	return &ApiService{
		Config:  cfg,
		Relay:   relay,
		Exports: exports,
		Local: func(ctx context.Context) (docker.Host, error) {
			return docker.NewEngine(ctx)
		},
		Dial: func(ctx context.Context, params remote.ConnectParams) (docker.Host, error) {
			return remote.Dial(ctx, params, cfg.SSHDialTimeout)
		},
	}
}
