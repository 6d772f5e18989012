package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
)

func (e *Engine) ListContainers(ctx context.Context) ([]ContainerSummary, error) {
	out, err := e.runCLI(ctx, "ps", "-a", "--format", "{{json .}}")
	if err != nil {
		return nil, err
	}

	records, err := DecodeJSONLines(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	containers := make([]ContainerSummary, 0, len(records))
	for _, record := range records {
		containers = append(containers, ContainerFromRecord(record))
	}
	return containers, nil
}

func (e *Engine) InspectContainer(ctx context.Context, id string) (map[string]any, error) {
	out, err := e.runCLI(ctx, "inspect", id)
	if err != nil {
		// docker inspect exits non-zero when the id is unknown
		var opErr *OperationError
		if errors.As(err, &opErr) {
			return nil, fmt.Errorf("%w: container %s: %s", ErrNotFound, id, opErr.Detail)
		}
		return nil, err
	}

	var records []map[string]any
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("%w: inspect output: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: container %s", ErrNotFound, id)
	}
	return records[0], nil
}

func (e *Engine) StartContainer(ctx context.Context, id string) error {
	if err := e.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return e.controlErr("start", id, err)
	}
	return nil
}

func (e *Engine) StopContainer(ctx context.Context, id string) error {
	if err := e.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return e.controlErr("stop", id, err)
	}
	return nil
}

func (e *Engine) RestartContainer(ctx context.Context, id string) error {
	if err := e.cli.ContainerRestart(ctx, id, container.StopOptions{}); err != nil {
		return e.controlErr("restart", id, err)
	}
	return nil
}

func (e *Engine) RemoveContainer(ctx context.Context, id string, force bool) error {
	if err := e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force}); err != nil {
		return e.controlErr("rm", id, err)
	}
	return nil
}

// controlErr maps SDK errors to the shared taxonomy.
func (e *Engine) controlErr(op, id string, err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: container %s", ErrNotFound, id)
	}
	return &OperationError{Op: fmt.Sprintf("%s %s", op, id), Detail: err.Error()}
}
