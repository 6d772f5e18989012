package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/logger"
)

// Result describes one produced archive.
type Result struct {
	Path string // final archive path, owned by the Job
	Size int64  // archive size in bytes
}

// ItemOutcome records the fate of one image in a best-effort batch export.
type ItemOutcome struct {
	Ref    string `json:"ref"`
	Member string `json:"member,omitempty"`
	Err    string `json:"error,omitempty"`
}

func (o ItemOutcome) Failed() bool { return o.Err != "" }

// SingleImage exports one image as a gzip-compressed tarball. The source
// stream's Close error is checked so a failed `docker save` is not mistaken
// for a short but valid archive.
func SingleImage(ctx context.Context, job *Job, host docker.Host, ref string) (*Result, error) {
	src, err := host.SaveImage(ctx, ref)
	if err != nil {
		if errors.Is(err, docker.ErrNotFound) {
			return nil, err
		}
		return nil, &docker.ExportError{Ref: ref, Err: err}
	}

	gzPath, err := job.TempFile("image-*.tar.gz")
	if err != nil {
		src.Close()
		return nil, &docker.ExportError{Ref: ref, Err: err}
	}

	size, copyErr := WriteGzip(gzPath, src)
	closeErr := src.Close()
	if copyErr != nil {
		return nil, &docker.ExportError{Ref: ref, Err: copyErr}
	}
	if closeErr != nil {
		return nil, &docker.ExportError{Ref: ref, Err: closeErr}
	}

	return &Result{Path: gzPath, Size: size}, nil
}

// AllImagesSpooled exports every image into one archive the way the local
// path does it: a bulk `docker save` lands in a temp tar, which is then
// compressed into a second temp file. Both are owned by the Job.
func AllImagesSpooled(ctx context.Context, job *Job, host docker.Host) (*Result, error) {
	refs, err := host.ExportRefs(ctx)
	if err != nil {
		return nil, err
	}

	tarPath, err := job.TempFile("images-*.tar")
	if err != nil {
		return nil, &docker.ExportError{Err: err}
	}
	gzPath, err := job.TempFile("images-*.tar.gz")
	if err != nil {
		return nil, &docker.ExportError{Err: err}
	}

	src, err := host.SaveImages(ctx, refs)
	if err != nil {
		return nil, &docker.ExportError{Err: err}
	}
	_, copyErr := SpoolToFile(tarPath, src)
	closeErr := src.Close()
	if copyErr != nil {
		return nil, &docker.ExportError{Err: copyErr}
	}
	if closeErr != nil {
		return nil, &docker.ExportError{Err: closeErr}
	}

	size, err := GzipFile(gzPath, tarPath)
	if err != nil {
		return nil, &docker.ExportError{Err: err}
	}

	return &Result{Path: gzPath, Size: size}, nil
}

// AllImagesStreamed exports every image into one archive compressing the
// bulk save stream directly, the way the remote path does it: one temp file,
// no intermediate tar.
func AllImagesStreamed(ctx context.Context, job *Job, host docker.Host) (*Result, error) {
	refs, err := host.ExportRefs(ctx)
	if err != nil {
		return nil, err
	}

	gzPath, err := job.TempFile("images-*.tar.gz")
	if err != nil {
		return nil, &docker.ExportError{Err: err}
	}

	src, err := host.SaveImages(ctx, refs)
	if err != nil {
		return nil, &docker.ExportError{Err: err}
	}
	size, copyErr := WriteGzip(gzPath, src)
	closeErr := src.Close()
	if copyErr != nil {
		return nil, &docker.ExportError{Err: copyErr}
	}
	if closeErr != nil {
		return nil, &docker.ExportError{Err: closeErr}
	}

	return &Result{Path: gzPath, Size: size}, nil
}

// IndividualImages exports each image as its own gzip tarball inside a temp
// directory and zips the lot. The batch is best effort per item: an image
// that fails to save has its partial file removed and shows up as a failed
// outcome, but the loop continues.
func IndividualImages(ctx context.Context, job *Job, host docker.Host) (*Result, []ItemOutcome, error) {
	log := logger.FromContext(ctx)

	refs, err := host.ExportRefs(ctx)
	if err != nil {
		return nil, nil, err
	}

	dir, err := job.TempDir()
	if err != nil {
		return nil, nil, &docker.ExportError{Err: err}
	}

	outcomes := make([]ItemOutcome, 0, len(refs))
	for _, ref := range refs {
		member := SafeMemberName(ref) + ".tar.gz"
		outcome := ItemOutcome{Ref: ref, Member: member}

		path, err := securejoin.SecureJoin(dir, member)
		if err != nil {
			outcome.Err = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := exportOne(ctx, host, ref, path); err != nil {
			log.WarnContext(ctx, "skipping image in batch export", "ref", ref, "error", err)
			os.Remove(path)
			outcome.Err = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}

	zipPath, err := job.TempFile("images-*.zip")
	if err != nil {
		return nil, outcomes, &docker.ExportError{Err: err}
	}
	size, err := ZipDir(zipPath, dir)
	if err != nil {
		return nil, outcomes, &docker.ExportError{Err: err}
	}

	return &Result{Path: zipPath, Size: size}, outcomes, nil
}

func exportOne(ctx context.Context, host docker.Host, ref, path string) error {
	src, err := host.SaveImage(ctx, ref)
	if err != nil {
		return err
	}
	_, copyErr := WriteGzip(path, src)
	closeErr := src.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return fmt.Errorf("save %s: %w", ref, closeErr)
	}
	return nil
}
