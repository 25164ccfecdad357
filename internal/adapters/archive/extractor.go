// Package archive implements gzipped-tarball extraction for source
// artifacts.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Extractor implements ports.Extractor for .tar.gz artifacts.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks the archive into dest and returns the relative paths of
// the regular files it wrote, in archive order. Entries that would escape
// dest are rejected.
func (e *Extractor) Extract(archive, dest string) ([]string, error) {
	f, err := os.Open(archive) //nolint:gosec // path is produced by the downloader
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open archive")
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read gzip stream")
	}
	defer func() { _ = gz.Close() }()

	var files []string
	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return nil, zerr.Wrap(err, "failed to read tar stream")
		}

		target, err := securePath(dest, header.Name)
		if err != nil {
			return nil, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return nil, zerr.Wrap(err, "failed to create directory")
			}
		case tar.TypeReg:
			if err := writeFile(target, reader, header.FileInfo().Mode()); err != nil {
				return nil, err
			}
			files = append(files, filepath.ToSlash(header.Name))
		case tar.TypeSymlink:
			if _, err := securePath(dest, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
				return nil, err
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return nil, zerr.Wrap(err, "failed to create symlink")
			}
		default:
			// Character devices, fifos and the like have no business in a
			// source tarball.
		}
	}
}

// securePath joins an archive entry name onto dest and rejects entries that
// would write outside it.
func securePath(dest, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", zerr.With(zerr.New("archive entry escapes destination"), "entry", name)
	}
	return filepath.Join(dest, cleaned), nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create parent directory")
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm()) //nolint:gosec // target is validated against traversal
	if err != nil {
		return zerr.Wrap(err, "failed to create file")
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, r); err != nil { //nolint:gosec // archive size is bounded by the verified artifact
		return zerr.Wrap(err, "failed to write file")
	}
	return out.Close()
}
