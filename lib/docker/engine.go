package docker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/docker/docker/client"

	"github.com/dockwatch/dockwatch/lib/logger"
)

// Engine is the local Host implementation. Control operations go through the
// Docker SDK; listings and full inspect go through the docker CLI so the
// response keeps the exact shape the CLI produces.
type Engine struct {
	cli *client.Client
}

var _ Host = (*Engine)(nil)

// NewEngine connects to the local daemon (honoring DOCKER_HOST et al) and
// verifies it is reachable. Failure to reach the daemon is ErrConnection.
func NewEngine(ctx context.Context) (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return &Engine{cli: cli}, nil
}

func (e *Engine) Close() error {
	return e.cli.Close()
}

// runCLI invokes the docker CLI and returns its stdout. A non-zero exit is an
// OperationError carrying the stderr text.
func (e *Engine) runCLI(ctx context.Context, args ...string) ([]byte, error) {
	log := logger.FromContext(ctx)
	log.DebugContext(ctx, "running docker command", "args", args)

	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, &OperationError{
				Op:     strings.Join(args, " "),
				Detail: strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("%w: run docker: %v", ErrConnection, err)
	}

	return stdout.Bytes(), nil
}

// shortID truncates a full container/image id to the standard 12 characters.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
