package app

import (
	"io"
	"log/slog"

	"github.com/geoffroypeeters/modelfactory/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. Summaries go to outW; logs go to their own writer so piping
// the summary stays clean.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and layer registry.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg, logW)
	logger.Debug("Logger configured successfully.")

	reg := registry.Standard()
	if err := reg.Validate(); err != nil {
		// A broken layer table is a programmer error, not a user error.
		panic(err)
	}
	logger.Debug("Layer registry validated.", "types", len(reg.Types()))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
	}
}

// Registry returns the application's layer registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
