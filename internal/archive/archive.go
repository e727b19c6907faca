package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// stemSuffixes are the compressed-tar suffixes stripped by Stem, longest
// first so ".tar.gz" wins over ".gz".
var stemSuffixes = []string{".tar.gz", ".tar.bz2", ".tgz", ".tar"}

// Stem returns the base name of archivePath with its compressed-tar suffix
// removed. Upstream releases unpack into a single top-level directory named
// after the archive file, so the stem names the expected extraction root.
// This is a convention over the upstream packaging, not something verified
// against the archive's contents.
func Stem(archivePath string) string {
	name := filepath.Base(archivePath)
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Extract unpacks the gzipped tar archive at archivePath into destDir.
// Directory and file entries are created with the modes recorded in the
// archive; symlinks are recreated only when their target stays inside
// destDir; other entry types (devices, fifos) are skipped. Any entry whose
// path would resolve outside destDir aborts the extraction.
func Extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer func() {
		_ = gz.Close()
	}()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar stream: %w", err)
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, hdr, tr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(destDir, target, hdr); err != nil {
				return err
			}
		default:
			// Device nodes and fifos have no place in an asset bundle.
			continue
		}
	}
}

// securePath joins name onto destDir and rejects any result that would
// resolve outside destDir.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func writeEntry(target string, hdr *tar.Header, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", hdr.Name, err)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", hdr.Name, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file %q: %w", hdr.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file %q: %w", hdr.Name, err)
	}
	return nil
}

func writeSymlink(destDir, target string, hdr *tar.Header) error {
	// Resolve the link target relative to the link's own directory and
	// require it to stay inside the extraction directory.
	linkDest := hdr.Linkname
	if !filepath.IsAbs(linkDest) {
		linkDest = filepath.Join(filepath.Dir(target), linkDest)
	}
	if _, err := securePath(destDir, mustRel(destDir, linkDest)); err != nil {
		return fmt.Errorf("symlink %q points outside the extraction directory", hdr.Name)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", hdr.Name, err)
	}
	if err := os.Symlink(hdr.Linkname, target); err != nil {
		return fmt.Errorf("failed to create symlink %q: %w", hdr.Name, err)
	}
	return nil
}

func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return ".."
	}
	return rel
}
