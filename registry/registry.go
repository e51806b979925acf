// Package registry maps layer type names to their parameter schemas and
// constructors. A definition declares, per parameter, the accepted kinds,
// whether it is required, its default, and how the -1 placeholder resolves
// against the incoming shape; the builder drives declarations through
// Resolve and Build without knowing any layer-specific rule itself.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/nn"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// InferFunc resolves the -1 placeholder of a parameter from the shape
// entering the layer. It is only called with a fully known shape.
type InferFunc func(in shapes.Shape) (modelspec.Value, error)

// BuildFunc constructs a layer from its resolved arguments and the
// incoming shape, returning the layer and the shape it produces. A nil
// incoming shape means the shape is unknown; constructors that can still
// build return a nil outgoing shape in that case.
type BuildFunc func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error)

// ParamSpec describes one parameter of a layer type.
type ParamSpec struct {
	// Name is the parameter key as written in model documents.
	Name string

	// Kinds lists the accepted value kinds.
	Kinds []modelspec.ValueKind

	// Required rejects declarations that omit the parameter. Mutually
	// exclusive with Default.
	Required bool

	// Default is substituted when the declaration omits the parameter.
	// Defaults that depend on another parameter are applied in Build
	// instead.
	Default *modelspec.Value

	// Infer resolves the -1 placeholder from the incoming shape.
	// Parameters without an Infer func treat -1 as an ordinary literal.
	Infer InferFunc

	// Check vets a resolved value beyond its kind, e.g. positivity.
	Check func(v modelspec.Value) error
}

// LayerDef describes one layer type.
type LayerDef struct {
	// Type is the layer type name as written in model documents.
	Type string

	// Description is a one-line summary for tooling output.
	Description string

	// Scalar describes the single unnamed value of layers declared in
	// scalar form, e.g. Activation. Mutually exclusive with Params.
	Scalar *ParamSpec

	// Params describes the named parameters of the mapping form, in the
	// order they are documented.
	Params []*ParamSpec

	// Build constructs the layer.
	Build BuildFunc
}

// Registry maps layer type names to their definitions.
type Registry struct {
	defs map[string]*LayerDef
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{defs: make(map[string]*LayerDef)}
}

// Register adds a definition. Registering an empty type name or the same
// type twice is a programming error and panics.
func (r *Registry) Register(def *LayerDef) {
	if def.Type == "" {
		panic("registry: definition with empty layer type")
	}
	if _, ok := r.defs[def.Type]; ok {
		panic(fmt.Sprintf("registry: duplicate layer type %q", def.Type))
	}
	r.defs[def.Type] = def
}

// Lookup returns the definition for a layer type. Unknown types report
// modelspec.ErrUnknownLayerType and list what is registered.
func (r *Registry) Lookup(layerType string) (*LayerDef, error) {
	def, ok := r.defs[layerType]
	if !ok {
		return nil, &modelspec.Error{
			Kind: modelspec.ErrUnknownLayerType,
			Msg:  fmt.Sprintf("%q is not a registered layer type (known types: %s)", layerType, strings.Join(r.Types(), ", ")),
		}
	}
	return def, nil
}

// Types returns the registered layer type names in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.defs))
	for t := range r.defs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validate performs a consistency check over every registered definition.
// It is meant to run once at startup so a malformed definition fails the
// whole application rather than the first model that happens to hit it.
func (r *Registry) Validate() error {
	var errs []string

	for _, layerType := range r.Types() {
		def := r.defs[layerType]

		if def.Build == nil {
			errs = append(errs, fmt.Sprintf("layer %q: no Build constructor", layerType))
		}
		if def.Scalar != nil && len(def.Params) > 0 {
			errs = append(errs, fmt.Sprintf("layer %q: scalar and named parameter schemas are mutually exclusive", layerType))
		}

		specs := def.Params
		if def.Scalar != nil {
			specs = append([]*ParamSpec{def.Scalar}, specs...)
		}
		seen := make(map[string]bool)
		for _, p := range specs {
			if p.Name == "" {
				errs = append(errs, fmt.Sprintf("layer %q: parameter with empty name", layerType))
				continue
			}
			if seen[p.Name] {
				errs = append(errs, fmt.Sprintf("layer %q: duplicate parameter %q", layerType, p.Name))
				continue
			}
			seen[p.Name] = true

			if len(p.Kinds) == 0 {
				errs = append(errs, fmt.Sprintf("layer %q, parameter %q: no accepted kinds", layerType, p.Name))
			}
			if p.Required && p.Default != nil {
				errs = append(errs, fmt.Sprintf("layer %q, parameter %q: required parameters cannot carry a default", layerType, p.Name))
			}
			if p.Default != nil && !kindAccepted(p.Kinds, p.Default.Kind) {
				errs = append(errs, fmt.Sprintf("layer %q, parameter %q: default kind %s is not among the accepted kinds", layerType, p.Name, p.Default.Kind))
			}
			if p.Infer != nil && !kindAccepted(p.Kinds, modelspec.IntKind) {
				errs = append(errs, fmt.Sprintf("layer %q, parameter %q: placeholder inference requires the int kind", layerType, p.Name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func kindAccepted(kinds []modelspec.ValueKind, k modelspec.ValueKind) bool {
	for _, accepted := range kinds {
		if accepted == k {
			return true
		}
	}
	return false
}
