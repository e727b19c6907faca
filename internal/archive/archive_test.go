package archive

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// writeTarGz builds a gzipped tar archive at path. Keys ending in "/" become
// directory entries; everything else becomes a regular file with the given
// content and mode 0644.
func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		if name[len(name)-1] == '/' {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestStem(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"tar.gz suffix", "bootstrap-sass-3.3.7.tar.gz", "bootstrap-sass-3.3.7"},
		{"tar.bz2 suffix", "bootstrap-sass-3.3.7.tar.bz2", "bootstrap-sass-3.3.7"},
		{"tgz suffix", "/tmp/downloads/bundle.tgz", "bundle"},
		{"plain tar", "bundle.tar", "bundle"},
		{"single unknown extension", "bundle.zip", "bundle"},
		{"dotted version survives", "release-1.2.3.tar.gz", "release-1.2.3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Stem(tc.in))
		})
	}
}

func TestExtract_RoundTrip(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "bundle-1.0.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"bundle-1.0/":               "",
		"bundle-1.0/a.txt":          "alpha",
		"bundle-1.0/sub/":           "",
		"bundle-1.0/sub/b.txt":      "beta",
		"bundle-1.0/sub/deep/c.css": "body {}",
	})
	destDir := t.TempDir()

	// --- Act ---
	err := Extract(context.Background(), archivePath, destDir)

	// --- Assert ---
	require.NoError(t, err)
	for path, want := range map[string]string{
		"bundle-1.0/a.txt":          "alpha",
		"bundle-1.0/sub/b.txt":      "beta",
		"bundle-1.0/sub/deep/c.css": "body {}",
	} {
		got, err := os.ReadFile(filepath.Join(destDir, path))
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}
}

func TestExtract_RejectsTraversal(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "evil.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"../escaped.txt": "gotcha",
	})
	destDir := t.TempDir()

	// --- Act ---
	err := Extract(context.Background(), archivePath, destDir)

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes the extraction directory")
	require.NoFileExists(t, filepath.Join(filepath.Dir(destDir), "escaped.txt"))
}

// writeTarGzWithSymlink builds an archive holding one regular file and one
// symlink pointing at linkTarget.
func writeTarGzWithSymlink(t *testing.T, path, linkName, linkTarget string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	content := "alpha"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "bundle/a.txt",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(content)),
	}))
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     linkName,
		Typeflag: tar.TypeSymlink,
		Linkname: linkTarget,
		Mode:     0777,
	}))

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestExtract_SymlinkInsideTree(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	archivePath := filepath.Join(t.TempDir(), "bundle.tar.gz")
	writeTarGzWithSymlink(t, archivePath, "bundle/link.txt", "a.txt")
	destDir := t.TempDir()

	// --- Act ---
	err := Extract(context.Background(), archivePath, destDir)

	// --- Assert ---
	require.NoError(t, err)
	linkPath := filepath.Join(destDir, "bundle", "link.txt")
	target, err := os.Readlink(linkPath)
	require.NoError(t, err)
	require.Equal(t, "a.txt", target)
	// The link resolves through its sibling file.
	got, err := os.ReadFile(linkPath)
	require.NoError(t, err)
	require.Equal(t, "alpha", string(got))
}

func TestExtract_SymlinkEscapingTree(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	archivePath := filepath.Join(t.TempDir(), "bundle.tar.gz")
	writeTarGzWithSymlink(t, archivePath, "bundle/link.txt", "../../outside")
	destDir := t.TempDir()

	// --- Act ---
	err := Extract(context.Background(), archivePath, destDir)

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "points outside the extraction directory")
	require.NoFileExists(t, filepath.Join(destDir, "bundle", "link.txt"))
}

func TestExtract_NotAnArchive(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "garbage.tar.gz")
	require.NoError(t, os.WriteFile(archivePath, []byte("this is not a gzip stream"), 0644))

	// --- Act ---
	err := Extract(context.Background(), archivePath, t.TempDir())

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "gzip")
}

func TestExtract_CancelledContext(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "bundle.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"bundle/a.txt": "alpha"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// --- Act ---
	err := Extract(ctx, archivePath, t.TempDir())

	// --- Assert ---
	require.ErrorIs(t, err, context.Canceled)
}
