package nn

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// ActivationNames lists the nonlinearities the Activation layer accepts.
var ActivationNames = []string{"LeakyReLU", "PReLU", "ReLU", "Sigmoid", "Softmax"}

// IsActivationName reports whether name is a recognized nonlinearity.
func IsActivationName(name string) bool {
	for _, n := range ActivationNames {
		if n == name {
			return true
		}
	}
	return false
}

// Activation applies a named element-wise nonlinearity. PReLU carries one
// learnable slope; the others have no parameters.
type Activation struct {
	Name string

	Slope *tensor.Tensor // PReLU only
}

func (a *Activation) Type() string { return "Activation" }

func (a *Activation) ParamShapes() []shapes.Shape {
	if a.Name != "PReLU" {
		return nil
	}
	return []shapes.Shape{{1}}
}

func (a *Activation) Params() []*tensor.Tensor {
	if a.Name != "PReLU" {
		return nil
	}
	return []*tensor.Tensor{a.Slope}
}

func (a *Activation) Materialize(init *Init) {
	if a.Name != "PReLU" {
		return
	}
	// The framework's default initial slope.
	a.Slope = tensor.New(1)
	a.Slope.Fill(0.25)
}

func (a *Activation) String() string { return a.Name + "()" }

// Dropout zeroes elements with probability P during training. p=0 makes
// it a no-op.
type Dropout struct {
	P float64
}

func (d *Dropout) Type() string                { return "Dropout" }
func (d *Dropout) ParamShapes() []shapes.Shape { return nil }
func (d *Dropout) Params() []*tensor.Tensor    { return nil }
func (d *Dropout) String() string              { return fmt.Sprintf("Dropout(p=%g)", d.P) }

// Abs applies an element-wise absolute value.
type Abs struct{}

func (a *Abs) Type() string                { return "AbsLayer" }
func (a *Abs) ParamShapes() []shapes.Shape { return nil }
func (a *Abs) Params() []*tensor.Tensor    { return nil }
func (a *Abs) String() string              { return "AbsLayer()" }
