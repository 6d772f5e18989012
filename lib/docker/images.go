package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/distribution/reference"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/errdefs"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

func (e *Engine) ListImages(ctx context.Context) ([]ImageSummary, error) {
	out, err := e.runCLI(ctx, "images", "--format", "{{json .}}")
	if err != nil {
		return nil, err
	}

	records, err := DecodeJSONLines(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	images := make([]ImageSummary, 0, len(records))
	for _, record := range records {
		images = append(images, ImageFromRecord(record))
	}
	return images, nil
}

func (e *Engine) RemoveImage(ctx context.Context, ref string, force bool) error {
	_, err := e.cli.ImageRemove(ctx, ref, image.RemoveOptions{Force: force})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: image %s", ErrNotFound, ref)
		}
		return &OperationError{Op: "rmi " + ref, Detail: err.Error()}
	}
	return nil
}

func (e *Engine) RunImage(ctx context.Context, ref string, opts RunOptions) (string, error) {
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return "", &OperationError{Op: "run " + ref, Detail: fmt.Sprintf("invalid image reference: %v", err)}
	}

	var platform *ocispec.Platform
	if opts.Platform != "" {
		p, err := parsePlatform(opts.Platform)
		if err != nil {
			return "", &OperationError{Op: "run " + ref, Detail: err.Error()}
		}
		platform = p
	}

	created, err := e.cli.ContainerCreate(ctx, &container.Config{Image: ref}, nil, nil, platform, opts.Name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", fmt.Errorf("%w: image %s", ErrNotFound, ref)
		}
		return "", &OperationError{Op: "run " + ref, Detail: err.Error()}
	}

	if err := e.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", &OperationError{Op: "run " + ref, Detail: err.Error()}
	}

	return shortID(created.ID), nil
}

func parsePlatform(s string) (*ocispec.Platform, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid platform %q, expected os/arch[/variant]", s)
	}
	p := &ocispec.Platform{OS: parts[0], Architecture: parts[1]}
	if len(parts) == 3 {
		p.Variant = parts[2]
	}
	return p, nil
}

func (e *Engine) SaveImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	// Resolve first so an unknown reference is a 404, not a broken stream.
	if _, _, err := e.cli.ImageInspectWithRaw(ctx, ref); err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: image %s", ErrNotFound, ref)
		}
		return nil, &OperationError{Op: "save " + ref, Detail: err.Error()}
	}

	rc, err := e.cli.ImageSave(ctx, []string{ref})
	if err != nil {
		return nil, &OperationError{Op: "save " + ref, Detail: err.Error()}
	}
	return rc, nil
}

func (e *Engine) ExportRefs(ctx context.Context) ([]string, error) {
	images, err := e.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, &OperationError{Op: "images", Detail: err.Error()}
	}

	var refs []string
	for _, img := range images {
		tagged := false
		for _, tag := range img.RepoTags {
			if tag == "<none>:<none>" {
				continue
			}
			refs = append(refs, tag)
			tagged = true
		}
		if !tagged {
			refs = append(refs, shortID(img.ID))
		}
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no images found on this machine", ErrNotFound)
	}
	return refs, nil
}

func (e *Engine) SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "docker", append([]string{"save"}, refs...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create save pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: run docker save: %v", ErrConnection, err)
	}

	return &cmdStream{stdout: stdout, cmd: cmd, stderr: &stderr}, nil
}

// cmdStream streams a subprocess's stdout. Close waits for the process and
// surfaces a non-zero exit as an OperationError with its stderr text.
type cmdStream struct {
	stdout io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	closed bool
}

func (s *cmdStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *cmdStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		return &OperationError{Op: "save", Detail: strings.TrimSpace(s.stderr.String())}
	}
	return nil
}
