package modelspec

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Pos is a source location inside a model document.
type Pos struct {
	File   string
	Line   int
	Column int
}

// String renders the position as "file:line:column", omitting what is unset.
func (p Pos) String() string {
	if p.Line == 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Params carries a layer declaration's parameters: either a single unnamed
// scalar (the Activation shorthand) or an ordered list of named fields.
type Params struct {
	Scalar *Value
	Fields []Field
}

// Field is one named parameter in declaration order.
type Field struct {
	Name  string
	Value Value
}

// IsScalar reports whether the parameters use the bare-scalar form.
func (p Params) IsScalar() bool { return p.Scalar != nil }

// IsEmpty reports whether no parameters were declared at all.
func (p Params) IsEmpty() bool { return p.Scalar == nil && len(p.Fields) == 0 }

// Lookup returns the named field's value.
func (p Params) Lookup(name string) (Value, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Equal compares two parameter sets structurally, ignoring Raw spellings.
func (p Params) Equal(o Params) bool {
	if (p.Scalar == nil) != (o.Scalar == nil) {
		return false
	}
	if p.Scalar != nil && !p.Scalar.Equal(*o.Scalar) {
		return false
	}
	if len(p.Fields) != len(o.Fields) {
		return false
	}
	for i := range p.Fields {
		if p.Fields[i].Name != o.Fields[i].Name || !p.Fields[i].Value.Equal(o.Fields[i].Value) {
			return false
		}
	}
	return true
}

// LayerDecl is one (type, params) declaration.
type LayerDecl struct {
	Type   string
	Params Params
	Pos    Pos
}

// Equal compares declarations structurally, ignoring source positions.
func (l *LayerDecl) Equal(o *LayerDecl) bool {
	return l.Type == o.Type && l.Params.Equal(o.Params)
}

// Component is an ordered sequence of layer declarations applied in order.
type Component struct {
	Layers []*LayerDecl
}

// Block is an ordered sequence of components; the output of one feeds the
// next.
type Block struct {
	Components []*Component
}

// Model is the top-level, format-agnostic representation of one declared
// network architecture. It is loaded once and never mutated afterwards.
type Model struct {
	Name       string
	InputShape shapes.Shape // includes the batch dimension; empty means undeclared
	Blocks     []*Block
	Pos        Pos
}

// Equal compares two models structurally, ignoring source positions and
// literal spellings. Two documents in different formats that declare the
// same architecture compare equal.
func (m *Model) Equal(o *Model) bool {
	if m.Name != o.Name || !m.InputShape.Equal(o.InputShape) || len(m.Blocks) != len(o.Blocks) {
		return false
	}
	for bi, b := range m.Blocks {
		ob := o.Blocks[bi]
		if len(b.Components) != len(ob.Components) {
			return false
		}
		for ci, c := range b.Components {
			oc := ob.Components[ci]
			if len(c.Layers) != len(oc.Layers) {
				return false
			}
			for li, l := range c.Layers {
				if !l.Equal(oc.Layers[li]) {
					return false
				}
			}
		}
	}
	return true
}

// Placement locates one layer declaration inside the model. Indices are
// zero-based.
type Placement struct {
	Block     int
	Component int
	Layer     int
	Decl      *LayerDecl
}

// Walk visits every layer declaration in document order, crossing component
// and block boundaries, stopping at the first error.
func (m *Model) Walk(fn func(Placement) error) error {
	for bi, b := range m.Blocks {
		for ci, c := range b.Components {
			for li, l := range c.Layers {
				if err := fn(Placement{Block: bi, Component: ci, Layer: li, Decl: l}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// NumLayers returns the total number of layer declarations.
func (m *Model) NumLayers() int {
	n := 0
	for _, b := range m.Blocks {
		for _, c := range b.Components {
			n += len(c.Layers)
		}
	}
	return n
}
