package app

import (
	"context"
	"fmt"

	"github.com/vk/bundleimport/internal/archive"
	"github.com/vk/bundleimport/internal/ctxlog"
	"github.com/vk/bundleimport/internal/importer"
	"github.com/vk/bundleimport/internal/manifest"
)

// Run executes one vendoring pass based on the App's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	arc := manifest.Archive{
		Path: a.config.ArchivePath,
		Stem: archive.Stem(a.config.ArchivePath),
	}

	var entries []manifest.Entry
	var err error
	if a.config.ManifestPath != "" {
		entries, err = manifest.Load(a.config.ManifestPath, arc)
	} else {
		entries, err = manifest.Default(arc)
	}
	if err != nil {
		return fmt.Errorf("failed to load mapping table: %w", err)
	}
	a.logger.Debug("Mapping table loaded.", "entry_count", len(entries))

	a.logger.Info("🚚 Importing asset bundle...", "archive", a.config.ArchivePath, "dest", a.config.DestDir)
	imp := importer.New(a.config.DestDir, a.outW)
	if err := imp.Run(ctx, a.config.ArchivePath, entries); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	a.logger.Info("🏁 Import finished.", "entry_count", len(entries))

	a.logger.Debug("App.Run method finished.")
	return nil
}
