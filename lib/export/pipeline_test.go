package export

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockwatch/dockwatch/lib/docker"
)

// fakeHost implements the export-facing slice of docker.Host through
// function fields; everything else panics via the embedded nil interface.
type fakeHost struct {
	docker.Host
	saveImage  func(ctx context.Context, ref string) (io.ReadCloser, error)
	exportRefs func(ctx context.Context) ([]string, error)
	saveImages func(ctx context.Context, refs []string) (io.ReadCloser, error)
}

func (f *fakeHost) SaveImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	return f.saveImage(ctx, ref)
}

func (f *fakeHost) ExportRefs(ctx context.Context) ([]string, error) {
	return f.exportRefs(ctx)
}

func (f *fakeHost) SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error) {
	return f.saveImages(ctx, refs)
}

func (f *fakeHost) Close() error { return nil }

// imageTar builds a real `docker save`-shaped tarball for a random image.
func imageTar(t *testing.T, ref string) []byte {
	t.Helper()

	img, err := random.Image(1024, 2)
	require.NoError(t, err)
	tag, err := name.NewTag(ref)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tarball.Write(tag, img, &buf))
	return buf.Bytes()
}

func gunzipFile(t *testing.T, path string) []byte {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return data
}

func tarMemberNames(t *testing.T, data []byte) []string {
	t.Helper()

	var names []string
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func TestSingleImage_Roundtrip(t *testing.T) {
	tarBytes := imageTar(t, "example.com/app:v1")
	host := &fakeHost{
		saveImage: func(ctx context.Context, ref string) (io.ReadCloser, error) {
			assert.Equal(t, "example.com/app:v1", ref)
			return io.NopCloser(bytes.NewReader(tarBytes)), nil
		},
	}

	base := t.TempDir()
	job := NewJob(base)

	result, err := SingleImage(context.Background(), job, host, "example.com/app:v1")
	require.NoError(t, err)
	assert.Positive(t, result.Size)

	// The archive decompresses back into a valid image tar.
	data := gunzipFile(t, result.Path)
	assert.Equal(t, tarBytes, data)
	assert.Contains(t, tarMemberNames(t, data), "manifest.json")

	job.Cleanup(context.Background())
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSingleImage_NotFoundPassesThrough(t *testing.T) {
	host := &fakeHost{
		saveImage: func(ctx context.Context, ref string) (io.ReadCloser, error) {
			return nil, docker.ErrNotFound
		},
	}

	_, err := SingleImage(context.Background(), NewJob(t.TempDir()), host, "missing:latest")
	require.Error(t, err)
	assert.ErrorIs(t, err, docker.ErrNotFound)

	var exportErr *docker.ExportError
	assert.False(t, errors.As(err, &exportErr))
}

type failingReader struct {
	data []byte
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		n := copy(p, r.data)
		return n, nil
	}
	return 0, errors.New("stream torn down")
}

func (r *failingReader) Close() error { return nil }

func TestSingleImage_MidStreamFailureCleansUp(t *testing.T) {
	host := &fakeHost{
		saveImage: func(ctx context.Context, ref string) (io.ReadCloser, error) {
			return &failingReader{data: []byte("partial tar bytes")}, nil
		},
	}

	base := t.TempDir()
	job := NewJob(base)

	_, err := SingleImage(context.Background(), job, host, "app:v1")
	require.Error(t, err)

	var exportErr *docker.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "app:v1", exportErr.Ref)

	// The partial temp file is gone after cleanup.
	job.Cleanup(context.Background())
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAllImagesSpooled(t *testing.T) {
	tarBytes := imageTar(t, "example.com/app:v1")
	host := &fakeHost{
		exportRefs: func(ctx context.Context) ([]string, error) {
			return []string{"example.com/app:v1"}, nil
		},
		saveImages: func(ctx context.Context, refs []string) (io.ReadCloser, error) {
			assert.Equal(t, []string{"example.com/app:v1"}, refs)
			return io.NopCloser(bytes.NewReader(tarBytes)), nil
		},
	}

	base := t.TempDir()
	job := NewJob(base)

	result, err := AllImagesSpooled(context.Background(), job, host)
	require.NoError(t, err)
	assert.Equal(t, tarBytes, gunzipFile(t, result.Path))

	// Spooling leaves the intermediate tar plus the archive until cleanup.
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	job.Cleanup(context.Background())
	entries, err = os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAllImagesStreamed(t *testing.T) {
	tarBytes := imageTar(t, "example.com/app:v2")
	host := &fakeHost{
		exportRefs: func(ctx context.Context) ([]string, error) {
			return []string{"example.com/app:v2"}, nil
		},
		saveImages: func(ctx context.Context, refs []string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(tarBytes)), nil
		},
	}

	base := t.TempDir()
	job := NewJob(base)

	result, err := AllImagesStreamed(context.Background(), job, host)
	require.NoError(t, err)
	assert.Equal(t, tarBytes, gunzipFile(t, result.Path))

	// Direct compression uses a single temp file.
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAllImages_NoImages(t *testing.T) {
	host := &fakeHost{
		exportRefs: func(ctx context.Context) ([]string, error) {
			return nil, docker.ErrNotFound
		},
	}

	_, err := AllImagesSpooled(context.Background(), NewJob(t.TempDir()), host)
	assert.ErrorIs(t, err, docker.ErrNotFound)

	_, err = AllImagesStreamed(context.Background(), NewJob(t.TempDir()), host)
	assert.ErrorIs(t, err, docker.ErrNotFound)
}

func TestIndividualImages_BestEffort(t *testing.T) {
	good := imageTar(t, "example.com/good:v1")
	host := &fakeHost{
		exportRefs: func(ctx context.Context) ([]string, error) {
			return []string{"good:v1", "broken:v1", "also-good:v2"}, nil
		},
		saveImage: func(ctx context.Context, ref string) (io.ReadCloser, error) {
			if ref == "broken:v1" {
				return &failingReader{data: []byte("truncated")}, nil
			}
			return io.NopCloser(bytes.NewReader(good)), nil
		},
	}

	base := t.TempDir()
	job := NewJob(base)

	result, outcomes, err := IndividualImages(context.Background(), job, host)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	var failed []ItemOutcome
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "broken:v1", failed[0].Ref)

	// The zip holds exactly the successes; no partial member for the failure.
	zr, err := zip.OpenReader(result.Path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"good_v1.tar.gz", "also-good_v2.tar.gz"}, names)

	zr.Close()
	job.Cleanup(context.Background())
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
