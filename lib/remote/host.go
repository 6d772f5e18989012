package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dockwatch/dockwatch/lib/docker"
)

const tailLines = "25"

func (c *Client) ListContainers(ctx context.Context) ([]docker.ContainerSummary, error) {
	out, err := c.run(ctx, `docker ps -a --format "{{json .}}"`)
	if err != nil {
		return nil, err
	}

	records, err := docker.DecodeJSONLines(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	containers := make([]docker.ContainerSummary, 0, len(records))
	for _, record := range records {
		full := docker.ContainerFromRecord(record)
		// Remote listings keep the narrow projection the endpoint has
		// always returned.
		containers = append(containers, docker.ContainerSummary{
			ID:     full.ID,
			Name:   full.Name,
			Status: full.Status,
			Image:  full.Image,
		})
	}
	return containers, nil
}

func (c *Client) InspectContainer(ctx context.Context, id string) (map[string]any, error) {
	out, err := c.run(ctx, fmt.Sprintf("docker inspect %s", id))
	if err != nil {
		var opErr *docker.OperationError
		if errors.As(err, &opErr) {
			return nil, fmt.Errorf("%w: container %s: %s", docker.ErrNotFound, id, opErr.Detail)
		}
		return nil, err
	}

	var records []map[string]any
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("%w: inspect output: %v", docker.ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: container %s", docker.ErrNotFound, id)
	}
	return records[0], nil
}

func (c *Client) StartContainer(ctx context.Context, id string) error {
	return c.control(ctx, fmt.Sprintf("docker start %s", id), "container", id)
}

func (c *Client) StopContainer(ctx context.Context, id string) error {
	return c.control(ctx, fmt.Sprintf("docker stop %s", id), "container", id)
}

func (c *Client) RestartContainer(ctx context.Context, id string) error {
	return c.control(ctx, fmt.Sprintf("docker restart %s", id), "container", id)
}

func (c *Client) RemoveContainer(ctx context.Context, id string, force bool) error {
	return c.control(ctx, fmt.Sprintf("docker rm %s%s", forceFlag(force), id), "container", id)
}

func (c *Client) ListImages(ctx context.Context) ([]docker.ImageSummary, error) {
	out, err := c.run(ctx, `docker images --format "{{json .}}"`)
	if err != nil {
		return nil, err
	}

	records, err := docker.DecodeJSONLines(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	images := make([]docker.ImageSummary, 0, len(records))
	for _, record := range records {
		full := docker.ImageFromRecord(record)
		images = append(images, docker.ImageSummary{
			ID:        full.ID,
			ImageName: full.ImageName,
			Size:      full.Size,
		})
	}
	return images, nil
}

func (c *Client) RemoveImage(ctx context.Context, ref string, force bool) error {
	return c.control(ctx, fmt.Sprintf("docker rmi %s%s", forceFlag(force), ref), "image", ref)
}

func (c *Client) RunImage(ctx context.Context, ref string, opts docker.RunOptions) (string, error) {
	cmd := "docker run -d"
	if opts.Name != "" {
		cmd += " --name " + opts.Name
	}
	if opts.Platform != "" {
		cmd += " --platform " + opts.Platform
	}
	cmd += " " + ref

	out, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}

	// docker may print pull progress or warnings before the id; the new
	// container's id is the last non-empty line.
	id := lastLine(string(out))
	if id == "" {
		return "", fmt.Errorf("%w: docker run printed no container id", docker.ErrParse)
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id, nil
}

func (c *Client) ListVolumes(ctx context.Context) ([]docker.VolumeSummary, error) {
	out, err := c.run(ctx, `docker volume ls --format "{{json .}}"`)
	if err != nil {
		return nil, err
	}

	records, err := docker.DecodeJSONLines(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	volumes := make([]docker.VolumeSummary, 0, len(records))
	for _, record := range records {
		full := docker.VolumeFromRecord(record)
		volumes = append(volumes, docker.VolumeSummary{
			Name:       full.Name,
			Driver:     full.Driver,
			Mountpoint: full.Mountpoint,
		})
	}
	return volumes, nil
}

func (c *Client) RemoveVolume(ctx context.Context, name string, force bool) error {
	return c.control(ctx, fmt.Sprintf("docker volume rm %s%s", forceFlag(force), name), "volume", name)
}

func (c *Client) FollowLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	if _, err := c.InspectContainer(ctx, id); err != nil {
		return nil, err
	}
	return c.stream(ctx, fmt.Sprintf("docker logs -f --tail %s %s", tailLines, id), true, false)
}

func (c *Client) FollowFile(ctx context.Context, id, path string) (io.ReadCloser, error) {
	if _, err := c.InspectContainer(ctx, id); err != nil {
		return nil, err
	}
	return c.stream(ctx, fmt.Sprintf("docker exec %s tail -n %s -f %s", id, tailLines, path), true, false)
}

func (c *Client) SaveImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	if _, err := c.run(ctx, fmt.Sprintf("docker image inspect --format {{.Id}} %s", ref)); err != nil {
		var opErr *docker.OperationError
		if errors.As(err, &opErr) {
			return nil, fmt.Errorf("%w: image %s: %s", docker.ErrNotFound, ref, opErr.Detail)
		}
		return nil, err
	}
	return c.stream(ctx, fmt.Sprintf("docker save %s", ref), false, true)
}

func (c *Client) ExportRefs(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, `docker images --format "{{.Repository}}:{{.Tag}}"`)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "<none>") || strings.Contains(line, "none:none") {
			continue
		}
		refs = append(refs, line)
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no valid images found on remote machine", docker.ErrNotFound)
	}
	return refs, nil
}

func (c *Client) SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error) {
	return c.stream(ctx, "docker save "+strings.Join(refs, " "), false, true)
}

// control runs one state-changing command. A non-zero exit whose stderr names
// a missing resource maps to ErrNotFound; any other failure keeps the tool's
// diagnostic text.
func (c *Client) control(ctx context.Context, command, kind, id string) error {
	_, err := c.run(ctx, command)
	if err == nil {
		return nil
	}

	var opErr *docker.OperationError
	if errors.As(err, &opErr) && strings.Contains(strings.ToLower(opErr.Detail), "no such "+kind) {
		return fmt.Errorf("%w: %s %s", docker.ErrNotFound, kind, id)
	}
	return err
}

func forceFlag(force bool) string {
	if force {
		return "-f "
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
