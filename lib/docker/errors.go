package docker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced container, image or volume does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConnection means the local daemon or the remote host could not be reached.
	ErrConnection = errors.New("connection failed")
	// ErrParse means the docker CLI produced output we could not decode.
	// The whole call fails; there are no partial results.
	ErrParse = errors.New("unexpected output from docker")
)

// OperationError is returned when a control command ran but the tool reported
// failure. Detail carries the tool's diagnostic text (usually stderr).
type OperationError struct {
	Op     string
	Detail string
}

func (e *OperationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("docker %s failed", e.Op)
	}
	return fmt.Sprintf("docker %s failed: %s", e.Op, e.Detail)
}

// ExportError is returned when an archive export failed at any stage.
type ExportError struct {
	Ref string
	Err error
}

func (e *ExportError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("image export failed: %v", e.Err)
	}
	return fmt.Sprintf("export of %s failed: %v", e.Ref, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
