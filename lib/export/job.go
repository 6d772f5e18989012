package export

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/nrednav/cuid2"

	"github.com/dockwatch/dockwatch/lib/logger"
)

// Job owns every temporary filesystem artifact created for one export
// request. Paths are registered the moment they are created, before anything
// is written to them, and Cleanup removes them exactly once no matter which
// exit path the request takes: deferred on failure inside the handler, or
// scheduled to run after the response body has been fully sent.
type Job struct {
	ID      string
	baseDir string

	mu    sync.Mutex
	paths []string
	once  sync.Once
}

// NewJob creates a job that allocates its temp artifacts under baseDir
// (the system temp dir when empty).
func NewJob(baseDir string) *Job {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Job{
		ID:      cuid2.Generate(),
		baseDir: baseDir,
	}
}

// Register adds a path to the set removed by Cleanup.
func (j *Job) Register(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paths = append(j.paths, path)
}

// TempFile creates an empty temp file owned by the job.
func (j *Job) TempFile(pattern string) (string, error) {
	f, err := os.CreateTemp(j.baseDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	j.Register(path)
	return path, nil
}

// TempDir creates a temp directory owned by the job.
func (j *Job) TempDir() (string, error) {
	dir, err := os.MkdirTemp(j.baseDir, "export-"+j.ID+"-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	j.Register(dir)
	return dir, nil
}

// Cleanup removes every registered path. Safe to call from multiple exit
// paths; only the first call does anything.
func (j *Job) Cleanup(ctx context.Context) {
	j.once.Do(func() {
		log := logger.FromContext(ctx)
		j.mu.Lock()
		paths := j.paths
		j.paths = nil
		j.mu.Unlock()

		for _, path := range paths {
			if err := os.RemoveAll(path); err != nil {
				log.WarnContext(ctx, "failed to remove export artifact", "job", j.ID, "path", path, "error", err)
			}
		}
	})
}
