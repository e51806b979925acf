package modelspec

import "context"

// Loader is the interface for a format-specific model document loader.
type Loader interface {
	// Load reads the model document at path and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}
