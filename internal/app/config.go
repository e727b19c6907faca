package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ArchivePath  string // compressed tar archive of the upstream bundle
	ManifestPath string // HCL mapping table; empty means the embedded default
	DestDir      string // working-tree root the assets are vendored into

	LogFormat string
	LogLevel  string
}

// NewConfig validates the provided configuration and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ArchivePath == "" {
		return nil, errors.New("ArchivePath is a required configuration field and cannot be empty")
	}
	if cfg.DestDir == "" {
		cfg.DestDir = "."
	}
	return &cfg, nil
}
