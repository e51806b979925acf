package app

import (
	"context"
	"fmt"
	"os"

	"github.com/geoffroypeeters/modelfactory/builder"
	"github.com/geoffroypeeters/modelfactory/internal/ctxlog"
	"github.com/geoffroypeeters/modelfactory/internal/fsutil"
	"github.com/geoffroypeeters/modelfactory/nn"
)

// Run executes the main application logic: every model document under the
// configured path is loaded, built into a network, and summarized.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	paths, err := a.resolvePaths()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		a.logger.Warn("No model documents found to process in path.", "path", a.config.ConfigPath)
		return nil
	}
	a.logger.Debug("Model documents resolved.", "count", len(paths))

	for _, path := range paths {
		if err := a.buildOne(ctx, path); err != nil {
			return fmt.Errorf("building %s: %w", path, err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// resolvePaths expands the configured path into the list of model documents
// to build. A directory is walked recursively for every supported format.
func (a *App) resolvePaths() ([]string, error) {
	info, err := os.Stat(a.config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("resolving model path: %w", err)
	}
	if !info.IsDir() {
		return []string{a.config.ConfigPath}, nil
	}
	return fsutil.FindFilesByExtensions(a.config.ConfigPath, ".yaml", ".yml", ".hcl")
}

// buildOne loads a single document, builds the network, optionally
// materializes its parameters, and prints the summary.
func (a *App) buildOne(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)

	model, err := a.loadModel(ctx, path)
	if err != nil {
		return err
	}
	logger.Debug("Model document loaded.", "model", model.Name, "layers", model.NumLayers())

	opts := []builder.Option{builder.WithRegistry(a.registry)}
	if len(a.config.InputShape) > 0 {
		opts = append(opts, builder.WithInputShape(a.config.InputShape))
	}
	network, err := builder.Build(ctx, model, opts...)
	if err != nil {
		return err
	}

	if a.config.Materialize {
		network.Materialize(nn.WithSeed(a.config.Seed))
		logger.Debug("Parameters materialized.", "seed", a.config.Seed, "params", network.ParamCount())
	}

	fmt.Fprint(a.outW, network.Summary())
	return nil
}
