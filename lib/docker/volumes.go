package docker

import (
	"bytes"
	"context"
	"fmt"

	"github.com/docker/docker/errdefs"
)

func (e *Engine) ListVolumes(ctx context.Context) ([]VolumeSummary, error) {
	out, err := e.runCLI(ctx, "volume", "ls", "--format", "{{json .}}")
	if err != nil {
		return nil, err
	}

	records, err := DecodeJSONLines(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	volumes := make([]VolumeSummary, 0, len(records))
	for _, record := range records {
		volumes = append(volumes, VolumeFromRecord(record))
	}
	return volumes, nil
}

func (e *Engine) RemoveVolume(ctx context.Context, name string, force bool) error {
	if err := e.cli.VolumeRemove(ctx, name, force); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: volume %s", ErrNotFound, name)
		}
		return &OperationError{Op: "volume rm " + name, Detail: err.Error()}
	}
	return nil
}
