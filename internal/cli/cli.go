package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/geoffroypeeters/modelfactory/internal/app"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("modelfactory", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
ModelFactory - builds neural network architectures from declarative model documents.

Usage:
  modelfactory [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a single .yaml, .yml, or .hcl model document, or a directory
    containing such documents.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the model document or directory.")
	cFlag := flagSet.String("c", "", "Path to the model document or directory (shorthand).")
	inputShapeFlag := flagSet.String("input-shape", "", "Override the documents' input shape, e.g. '1,1,128,64'.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	initFlag := flagSet.Bool("init", false, "Materialize initial parameter tensors after building.")
	seedFlag := flagSet.Uint64("seed", 1, "Seed for parameter materialization.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Model path determined.", "path", path)

	if path == "" {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var inputShape shapes.Shape
	if *inputShapeFlag != "" {
		shape, err := ParseShape(*inputShapeFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		inputShape = shape
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:  path,
		InputShape:  inputShape,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		Materialize: *initFlag,
		Seed:        *seedFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// ParseShape parses a comma-separated dimension list such as "1,1,128,64".
func ParseShape(s string) (shapes.Shape, error) {
	parts := strings.Split(s, ",")
	shape := make(shapes.Shape, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid input shape %q: %q is not an integer", s, part)
		}
		shape = append(shape, n)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input shape %q: %w", s, err)
	}
	return shape, nil
}
