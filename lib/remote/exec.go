package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/dockwatch/dockwatch/lib/docker"
)

// run executes one command over a fresh SSH session and returns its stdout.
// A non-zero exit becomes an OperationError with the stderr text.
func (c *Client) run(ctx context.Context, command string) ([]byte, error) {
	sess, err := c.ssh.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: open session: %v", docker.ErrConnection, err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		sess.Close()
		return nil, ctx.Err()
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return nil, opError(command, stderr.String())
		}
		return nil, fmt.Errorf("%w: run %q: %v", docker.ErrConnection, command, err)
	}

	return stdout.Bytes(), nil
}

// stream starts a command and hands back its live stdout.
//
// waitOnClose selects the termination mode: finite commands (docker save)
// wait for the exit status so a failed save is reported; follow commands
// (docker logs -f) are torn down by closing the session, which kills the
// remote process when the caller goes away.
func (c *Client) stream(ctx context.Context, command string, pty, waitOnClose bool) (io.ReadCloser, error) {
	sess, err := c.ssh.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: open session: %v", docker.ErrConnection, err)
	}

	if pty {
		// A pty keeps the remote docker CLI line-buffered so follow output
		// arrives as it is produced.
		modes := ssh.TerminalModes{
			ssh.ECHO: 0,
		}
		if err := sess.RequestPty("xterm", 80, 200, modes); err != nil {
			sess.Close()
			return nil, fmt.Errorf("%w: request pty: %v", docker.ErrConnection, err)
		}
	}

	var stderr bytes.Buffer
	sess.Stderr = &stderr

	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: stdout pipe: %v", docker.ErrConnection, err)
	}

	if err := sess.Start(command); err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: start %q: %v", docker.ErrConnection, command, err)
	}

	s := &execStream{
		stdout:      stdout,
		sess:        sess,
		stderr:      &stderr,
		command:     command,
		waitOnClose: waitOnClose,
	}

	// Tear the session down when the request context is cancelled so a
	// disconnected caller cannot leave an SSH channel open.
	stop := context.AfterFunc(ctx, func() { sess.Close() })
	s.stopWatch = stop

	return s, nil
}

type execStream struct {
	stdout      io.Reader
	sess        *ssh.Session
	stderr      *bytes.Buffer
	command     string
	waitOnClose bool
	stopWatch   func() bool
	closed      bool
}

func (s *execStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *execStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.stopWatch != nil {
		s.stopWatch()
	}

	if s.waitOnClose {
		err := s.sess.Wait()
		s.sess.Close()
		if err != nil {
			return opError(s.command, s.stderr.String())
		}
		return nil
	}

	return s.sess.Close()
}

func opError(command, stderr string) error {
	return &docker.OperationError{
		Op:     command,
		Detail: strings.TrimSpace(stderr),
	}
}
