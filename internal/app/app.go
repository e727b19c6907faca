package app

import (
	"io"
	"log/slog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer // progress lines (the data-facing output)
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. Diagnostics go to the
// logger built on errW; per-entry progress lines go to outW.
func NewApp(outW, errW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
	}
}
