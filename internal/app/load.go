package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/geoffroypeeters/modelfactory/hclspec"
	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/yamlspec"
)

// loadModel picks a front-end by file extension and loads the document.
func (a *App) loadModel(ctx context.Context, path string) (*modelspec.Model, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yamlspec.NewLoader().Load(ctx, path)
	case ".hcl":
		return hclspec.NewLoader().Load(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported model document %s: want a .yaml, .yml, or .hcl file", path)
	}
}
