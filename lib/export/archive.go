package export

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SafeMemberName derives a filesystem-safe archive member name from an image
// reference: `:` and `/` become `_`. Untagged images are exported under their
// short id, which is already safe.
func SafeMemberName(ref string) string {
	return strings.NewReplacer(":", "_", "/", "_").Replace(ref)
}

// WriteGzip streams src through gzip into the file at path and returns the
// compressed byte count. The file must already be registered with a Job.
func WriteGzip(path string, src io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return 0, fmt.Errorf("compress to %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("flush gzip %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// GzipFile compresses the file at srcPath into dstPath.
func GzipFile(dstPath, srcPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()
	return WriteGzip(dstPath, src)
}

// SpoolToFile copies a stream into the file at path and returns the byte
// count. Used to materialize a bulk `docker save` tar before compression.
func SpoolToFile(path string, src io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, src)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}

// ZipDir archives the top-level regular files of dir into a zip at zipPath
// and returns the archive size.
func ZipDir(zipPath, dir string) (int64, error) {
	f, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", zipPath, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entries, err := os.ReadDir(dir)
	if err != nil {
		zw.Close()
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := addZipMember(zw, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			zw.Close()
			return 0, err
		}
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finalize %s: %w", zipPath, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", zipPath, err)
	}
	return info.Size(), nil
}

func addZipMember(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	// Members are already gzip-compressed tarballs; store them as-is.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("add zip member %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write zip member %s: %w", name, err)
	}
	return nil
}
