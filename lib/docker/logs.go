package docker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

const logTailLines = "25"

func (e *Engine) FollowLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	info, err := e.cli.ContainerInspect(ctx, id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: container %s", ErrNotFound, id)
		}
		return nil, &OperationError{Op: "logs " + id, Detail: err.Error()}
	}

	rc, err := e.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       logTailLines,
	})
	if err != nil {
		return nil, &OperationError{Op: "logs " + id, Detail: err.Error()}
	}

	// Non-TTY containers multiplex stdout/stderr into one stream with frame
	// headers; demux so the caller sees plain log bytes.
	if info.Config != nil && info.Config.Tty {
		return rc, nil
	}
	return demux(rc), nil
}

func (e *Engine) FollowFile(ctx context.Context, id, path string) (io.ReadCloser, error) {
	created, err := e.cli.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          []string{"tail", "-n", logTailLines, "-f", path},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: container %s", ErrNotFound, id)
		}
		return nil, &OperationError{Op: "exec " + id, Detail: err.Error()}
	}

	attached, err := e.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, &OperationError{Op: "exec " + id, Detail: err.Error()}
	}

	demuxed := demux(struct {
		io.Reader
		io.Closer
	}{attached.Reader, closerFunc(func() error {
		attached.Close()
		return nil
	})})
	// The hijacked exec connection is not tied to ctx by the SDK; close it
	// ourselves when the caller goes away so the remote tail cannot outlive
	// the request.
	return closeOnDone(ctx, demuxed), nil
}

// closeOnDone ties a stream's lifetime to ctx: cancellation closes the
// source, which unblocks any pending Read.
func closeOnDone(ctx context.Context, src io.ReadCloser) io.ReadCloser {
	stop := context.AfterFunc(ctx, func() { src.Close() })
	return &boundStream{src: src, stop: stop}
}

type boundStream struct {
	src  io.ReadCloser
	stop func() bool
}

func (b *boundStream) Read(p []byte) (int, error) {
	return b.src.Read(p)
}

func (b *boundStream) Close() error {
	b.stop()
	return b.src.Close()
}

// demux unwraps the docker stream multiplexing into a plain byte stream,
// merging stdout and stderr the way `docker logs` does on a terminal.
func demux(src io.ReadCloser) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, src)
		pw.CloseWithError(err)
	}()
	return &demuxStream{pr: pr, src: src}
}

type demuxStream struct {
	pr   *io.PipeReader
	src  io.ReadCloser
	once sync.Once
	err  error
}

func (d *demuxStream) Read(p []byte) (int, error) {
	return d.pr.Read(p)
}

// Close is safe to call concurrently; the websocket relay tears the source
// down from its control-frame reader while the handler's defer also fires.
func (d *demuxStream) Close() error {
	d.once.Do(func() {
		// Closing the source unblocks the copier; the pipe drains to EOF.
		d.err = d.src.Close()
		d.pr.Close()
	})
	return d.err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
