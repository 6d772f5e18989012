package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dockwatch/dockwatch/lib/logger"
	"github.com/dockwatch/dockwatch/lib/otel"
)

// Relay forwards a live log source to an HTTP response without ever
// buffering it to completion. Once streaming has begun the status code is
// committed, so a source failure is degraded to one final in-band diagnostic
// chunk instead of an error response.
type Relay struct {
	metrics *otel.StreamMetrics
}

// New creates a relay. metrics may be nil.
func New(metrics *otel.StreamMetrics) *Relay {
	return &Relay{metrics: metrics}
}

// Chunks relays raw byte chunks in source order, flushing after each one.
// It always closes src, exactly once, and returns when the source ends or
// the request context is cancelled.
func (r *Relay) Chunks(ctx context.Context, w http.ResponseWriter, src io.ReadCloser) {
	defer src.Close()
	r.trackStream(ctx)
	defer r.untrackStream(ctx)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			r.countBytes(ctx, n)
		}
		if err != nil {
			r.finish(ctx, w, flusher, err)
			return
		}
	}
}

// Lines relays the source line by line. Used for remote SSH sources, where
// the command output is already line-oriented.
func (r *Relay) Lines(ctx context.Context, w http.ResponseWriter, src io.ReadCloser) {
	defer src.Close()
	r.trackStream(ctx)
	defer r.untrackStream(ctx)

	flusher, _ := w.(http.Flusher)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if _, err := w.Write(append(line, '\n')); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		r.countBytes(ctx, len(line)+1)
	}
	r.finish(ctx, w, flusher, scanner.Err())
}

// finish handles end-of-stream: EOF and caller cancellation end quietly,
// anything else becomes the one in-band diagnostic chunk.
func (r *Relay) finish(ctx context.Context, w io.Writer, flusher http.Flusher, err error) {
	if err == nil || errors.Is(err, io.EOF) || ctx.Err() != nil {
		return
	}
	log := logger.FromContext(ctx)
	log.WarnContext(ctx, "log stream ended with error", "error", err)
	fmt.Fprintf(w, "Error reading stream: %v", err)
	if flusher != nil {
		flusher.Flush()
	}
}

func (r *Relay) trackStream(ctx context.Context) {
	if r.metrics != nil {
		r.metrics.ActiveStreams.Add(ctx, 1)
	}
}

func (r *Relay) untrackStream(ctx context.Context) {
	if r.metrics != nil {
		r.metrics.ActiveStreams.Add(ctx, -1)
	}
}

func (r *Relay) countBytes(ctx context.Context, n int) {
	if r.metrics != nil {
		r.metrics.BytesRelayed.Add(ctx, int64(n))
	}
}
