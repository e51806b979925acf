package registry

import (
	"fmt"
	"strings"

	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Args holds a declaration's parameters after Resolve: every placeholder
// inferred, every default applied, every value kind-checked. Accessors
// return the zero value for absent optional parameters; Build funcs guard
// those with Has.
type Args struct {
	vals map[string]modelspec.Value
}

// Has reports whether the parameter is present.
func (a *Args) Has(name string) bool {
	_, ok := a.vals[name]
	return ok
}

// Int returns an int parameter.
func (a *Args) Int(name string) int {
	return a.vals[name].Int
}

// Ints returns an int-list parameter. A plain int is promoted to a
// one-element list.
func (a *Args) Ints(name string) []int {
	v, ok := a.vals[name]
	if !ok {
		return nil
	}
	if v.Kind == modelspec.IntKind {
		return []int{v.Int}
	}
	return append([]int(nil), v.Ints...)
}

// Pair returns a two-element parameter such as a 2-D kernel size. A plain
// int is broadcast to both elements.
func (a *Args) Pair(name string) [2]int {
	v := a.vals[name]
	if v.Kind == modelspec.IntKind {
		return [2]int{v.Int, v.Int}
	}
	return [2]int{v.Ints[0], v.Ints[1]}
}

// Float returns a float parameter. A plain int is promoted.
func (a *Args) Float(name string) float64 {
	v := a.vals[name]
	if v.Kind == modelspec.IntKind {
		return float64(v.Int)
	}
	return v.Float
}

// Bool returns a bool parameter.
func (a *Args) Bool(name string) bool {
	return a.vals[name].Bool
}

// Str returns a string parameter.
func (a *Args) Str(name string) string {
	return a.vals[name].Str
}

// Resolve checks a declaration's parameters against the schema and turns
// them into Args: form and kind checks, placeholder inference against the
// incoming shape, per-parameter checks, defaults, and required-parameter
// enforcement. Errors carry no position; the builder attaches it.
func (d *LayerDef) Resolve(p modelspec.Params, in shapes.Shape) (*Args, error) {
	vals := make(map[string]modelspec.Value)

	if d.Scalar != nil {
		if !p.IsScalar() {
			if p.IsEmpty() {
				return nil, paramErrf("missing required %s value", d.Scalar.Name)
			}
			return nil, paramErrf("%s takes a single %s value, not named parameters", d.Type, d.Scalar.Name)
		}
		v, err := resolveOne(d.Scalar, *p.Scalar, in)
		if err != nil {
			return nil, err
		}
		vals[d.Scalar.Name] = v
		return &Args{vals: vals}, nil
	}

	if p.IsScalar() {
		if len(d.Params) == 0 {
			return nil, paramErrf("%s takes no parameters", d.Type)
		}
		return nil, paramErrf("%s takes named parameters, not a bare value", d.Type)
	}

	specByName := make(map[string]*ParamSpec, len(d.Params))
	for _, spec := range d.Params {
		specByName[spec.Name] = spec
	}

	for _, f := range p.Fields {
		spec, ok := specByName[f.Name]
		if !ok {
			return nil, paramErrf("unknown parameter %q for %s", f.Name, d.Type)
		}
		if _, dup := vals[f.Name]; dup {
			return nil, paramErrf("parameter %q declared twice", f.Name)
		}
		v, err := resolveOne(spec, f.Value, in)
		if err != nil {
			return nil, err
		}
		vals[f.Name] = v
	}

	for _, spec := range d.Params {
		if _, ok := vals[spec.Name]; ok {
			continue
		}
		if spec.Required {
			return nil, paramErrf("missing required parameter %q", spec.Name)
		}
		if spec.Default != nil {
			vals[spec.Name] = *spec.Default
		}
	}

	return &Args{vals: vals}, nil
}

func resolveOne(spec *ParamSpec, v modelspec.Value, in shapes.Shape) (modelspec.Value, error) {
	if v.IsPlaceholder() && spec.Infer != nil {
		if !in.Known() {
			return modelspec.Value{}, shapeErrf("cannot infer %q: no input shape has been declared or propagated", spec.Name)
		}
		inferred, err := spec.Infer(in)
		if err != nil {
			return modelspec.Value{}, err
		}
		v = inferred
	}
	if !kindAccepted(spec.Kinds, v.Kind) {
		return modelspec.Value{}, paramErrf("parameter %q: got %s, want %s", spec.Name, v.Kind, kindList(spec.Kinds))
	}
	if spec.Check != nil {
		if err := spec.Check(v); err != nil {
			return modelspec.Value{}, err
		}
	}
	return v, nil
}

func kindList(kinds []modelspec.ValueKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " or ")
}

func paramErrf(format string, args ...any) error {
	return &modelspec.Error{Kind: modelspec.ErrParamValidation, Msg: fmt.Sprintf(format, args...)}
}

func shapeErrf(format string, args ...any) error {
	return &modelspec.Error{Kind: modelspec.ErrShapeInference, Msg: fmt.Sprintf(format, args...)}
}
