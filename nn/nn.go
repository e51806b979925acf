// Package nn defines the constructed network and its layer types. A layer
// here is configuration and metadata for an external training framework:
// the declared hyperparameters plus the shapes (and, after
// materialization, the tensors) of its learnable parameters. No forward or
// backward computation lives in this package.
package nn

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// Layer is one constructed layer of a network.
type Layer interface {
	// Type returns the layer type name as declared, e.g. "Conv2d".
	Type() string

	// ParamShapes returns the shapes of the layer's learnable tensors in a
	// fixed order, weights before biases. Layers without learnable
	// parameters return nil.
	ParamShapes() []shapes.Shape

	// Params returns the parameter tensors, index-aligned with
	// ParamShapes. Entries are nil until the network is materialized.
	Params() []*tensor.Tensor

	// String returns a one-line description for summaries.
	String() string
}

// Unit is one placed layer: the constructed layer plus where it sits in
// the declaration and the shapes flowing through it. Block and Component
// are 1-based, matching the numbering used in error messages.
type Unit struct {
	Block     int
	Component int
	Layer     Layer
	In        shapes.Shape
	Out       shapes.Shape
}

// ParamCount returns the number of learnable scalars in this unit.
func (u *Unit) ParamCount() int64 {
	var n int64
	for _, s := range u.Layer.ParamShapes() {
		n += int64(s.Numel())
	}
	return n
}

// Network is the constructed model: an ordered list of units with the
// declared name and input shape. It is handed to an external training
// framework, which owns all further behavior.
type Network struct {
	Name  string
	Input shapes.Shape
	Units []*Unit
}

// Output returns the shape produced by the final unit.
func (n *Network) Output() shapes.Shape {
	if len(n.Units) == 0 {
		return n.Input
	}
	return n.Units[len(n.Units)-1].Out
}

// Layers returns the constructed layers in document order.
func (n *Network) Layers() []Layer {
	out := make([]Layer, len(n.Units))
	for i, u := range n.Units {
		out[i] = u.Layer
	}
	return out
}

// ParamCount returns the total number of learnable scalars in the network.
func (n *Network) ParamCount() int64 {
	var total int64
	for _, u := range n.Units {
		total += u.ParamCount()
	}
	return total
}

// Params returns every materialized parameter tensor in document order.
// The slice is empty until Materialize has run.
func (n *Network) Params() []*tensor.Tensor {
	var out []*tensor.Tensor
	for _, u := range n.Units {
		for _, p := range u.Layer.Params() {
			if p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// Summary renders a human-readable table of the network: one row per unit
// with its block.component position, description, output shape, and
// parameter count.
func (n *Network) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s\n", n.Name)
	fmt.Fprintf(&b, "Input: %s\n", n.Input)
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tBlock\tLayer\tOutput\tParams")
	for i, u := range n.Units {
		fmt.Fprintf(w, "%d\t%d.%d\t%s\t%s\t%d\n", i+1, u.Block, u.Component, u.Layer, u.Out, u.ParamCount())
	}
	w.Flush()
	fmt.Fprintf(&b, "Total params: %d\n", n.ParamCount())
	return b.String()
}
