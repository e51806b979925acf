package app

import (
	"errors"

	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // a model document, or a directory of them

	InputShape shapes.Shape // optional override for the documents' input shape

	LogFormat   string
	LogLevel    string
	Materialize bool
	Seed        uint64
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if len(cfg.InputShape) > 0 {
		if err := cfg.InputShape.Validate(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}
