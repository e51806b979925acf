// Package builder turns a loaded model document into a constructed
// network. It walks every layer declaration in document order, threading
// the inferred shape across component and block boundaries, resolving the
// -1 placeholders against it before each layer is constructed.
package builder

import (
	"context"
	"fmt"

	"github.com/geoffroypeeters/modelfactory/internal/ctxlog"
	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/nn"
	"github.com/geoffroypeeters/modelfactory/registry"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Option adjusts how Build constructs a network.
type Option func(*options)

type options struct {
	reg   *registry.Registry
	input shapes.Shape
}

// WithRegistry builds against a custom layer registry instead of the
// standard one.
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.reg = r }
}

// WithInputShape overrides the input shape declared in the document.
func WithInputShape(s shapes.Shape) Option {
	return func(o *options) { o.input = s.Clone() }
}

// Build constructs the network a model declares. The input shape seeds
// inference; a model without one still builds as long as no layer needs
// the shape. Construction is all-or-nothing: the first failing layer
// aborts the build with an error locating it in the document.
func Build(ctx context.Context, model *modelspec.Model, opts ...Option) (*nn.Network, error) {
	logger := ctxlog.FromContext(ctx)

	o := options{reg: registry.Standard(), input: model.InputShape.Clone()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	if o.input.Known() {
		if err := o.input.Validate(); err != nil {
			return nil, fmt.Errorf("input shape %s: %w", o.input, err)
		}
	}

	net := &nn.Network{Name: model.Name, Input: o.input.Clone()}
	current := o.input

	err := model.Walk(func(pl modelspec.Placement) error {
		path := fmt.Sprintf("block %d, component %d, layer %d (%s)",
			pl.Block+1, pl.Component+1, pl.Layer+1, pl.Decl.Type)

		def, err := o.reg.Lookup(pl.Decl.Type)
		if err != nil {
			return modelspec.At(err, pl.Decl.Pos, path)
		}
		args, err := def.Resolve(pl.Decl.Params, current)
		if err != nil {
			return modelspec.At(err, pl.Decl.Pos, path)
		}
		layer, out, err := def.Build(args, current)
		if err != nil {
			return modelspec.At(err, pl.Decl.Pos, path)
		}

		net.Units = append(net.Units, &nn.Unit{
			Block:     pl.Block + 1,
			Component: pl.Component + 1,
			Layer:     layer,
			In:        current.Clone(),
			Out:       out.Clone(),
		})
		logger.Debug("Layer placed.", "layer", layer.String(), "in", current.String(), "out", out.String())
		current = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Network constructed.",
		"model", model.Name,
		"layers", len(net.Units),
		"output", current.String(),
		"params", net.ParamCount())
	return net, nil
}
