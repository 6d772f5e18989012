package stream

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackedCloser struct {
	io.Reader
	closed int
}

func (c *trackedCloser) Close() error {
	c.closed++
	return nil
}

func TestChunks_RelaysInOrder(t *testing.T) {
	src := &trackedCloser{Reader: strings.NewReader("first\nsecond\nthird\n")}
	rec := httptest.NewRecorder()

	New(nil).Chunks(context.Background(), rec, src)

	assert.Equal(t, "first\nsecond\nthird\n", rec.Body.String())
	assert.Equal(t, 1, src.closed)
}

type erroringSource struct {
	data   string
	served bool
	closed int
}

func (s *erroringSource) Read(p []byte) (int, error) {
	if !s.served {
		s.served = true
		return copy(p, s.data), nil
	}
	return 0, errors.New("connection reset")
}

func (s *erroringSource) Close() error {
	s.closed++
	return nil
}

func TestChunks_SourceErrorReportedInBand(t *testing.T) {
	src := &erroringSource{data: "partial output\n"}
	rec := httptest.NewRecorder()

	New(nil).Chunks(context.Background(), rec, src)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "partial output\n"))
	assert.Contains(t, body, "Error reading stream: connection reset")
	assert.Equal(t, 1, src.closed)
}

func TestChunks_CancelledContextEndsQuietly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &erroringSource{data: "tail\n"}
	rec := httptest.NewRecorder()

	New(nil).Chunks(ctx, rec, src)

	assert.NotContains(t, rec.Body.String(), "Error reading stream")
	assert.Equal(t, 1, src.closed)
}

func TestLines_RelaysLineByLine(t *testing.T) {
	src := &trackedCloser{Reader: strings.NewReader("alpha\nbeta\ngamma")}
	rec := httptest.NewRecorder()

	New(nil).Lines(context.Background(), rec, src)

	// Final line without a newline still arrives terminated.
	assert.Equal(t, "alpha\nbeta\ngamma\n", rec.Body.String())
	assert.Equal(t, 1, src.closed)
}

func TestLines_EmptySource(t *testing.T) {
	src := &trackedCloser{Reader: strings.NewReader("")}
	rec := httptest.NewRecorder()

	New(nil).Lines(context.Background(), rec, src)

	require.Empty(t, rec.Body.String())
	assert.Equal(t, 1, src.closed)
}
