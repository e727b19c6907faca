package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/bundleimport/internal/archive"
	"github.com/vk/bundleimport/internal/ctxlog"
	"github.com/vk/bundleimport/internal/fsutil"
	"github.com/vk/bundleimport/internal/manifest"
)

// srcColumnWidth left-justifies the source path in progress lines so the
// destinations line up.
const srcColumnWidth = 48

// Importer copies mapping-table entries from an extracted bundle into the
// working tree. It is single-threaded and makes no attempt at partial
// recovery: the first failing entry aborts the run.
type Importer struct {
	workTree string
	out      io.Writer
}

// New creates an Importer writing into workTree and emitting one progress
// line per entry to out.
func New(workTree string, out io.Writer) *Importer {
	return &Importer{workTree: workTree, out: out}
}

// Run performs one vendoring pass: stat the archive, extract it into a
// fresh temporary workspace, copy every entry in table order, and remove
// the workspace on every exit path.
func (imp *Importer) Run(ctx context.Context, archivePath string, entries []manifest.Entry) error {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingArchive, archivePath)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrMissingArchive, archivePath)
	}

	workspace, err := os.MkdirTemp("", "bundleimport-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Warn("Failed to remove workspace.", "dir", workspace, "error", err)
		}
	}()
	logger.Debug("Workspace created.", "dir", workspace)

	if err := archive.Extract(ctx, archivePath, workspace); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	stem := archive.Stem(archivePath)
	extractionRoot := filepath.Join(workspace, stem)
	if _, err := os.Stat(extractionRoot); err != nil {
		// The upstream naming convention was violated; no entry can succeed.
		return fmt.Errorf("%w: expected top-level directory %q not present in archive", ErrExtractionFailed, stem)
	}
	logger.Debug("Archive extracted.", "root", extractionRoot)

	for _, entry := range entries {
		fmt.Fprintf(imp.out, "%-*s -> %s\n", srcColumnWidth, entry.Src, entry.Dest)

		src := filepath.Join(extractionRoot, filepath.FromSlash(entry.Src))
		dst := filepath.Join(imp.workTree, filepath.FromSlash(entry.Dest))
		if err := fsutil.CopyAll(src, dst); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrImportEntryFailed, entry.Src, err)
		}
	}
	return nil
}
