package nn

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// Mean averages along one axis, collapsing it unless KeepDim is set.
type Mean struct {
	Dim     int
	KeepDim bool
}

func (m *Mean) Type() string                { return "Mean" }
func (m *Mean) ParamShapes() []shapes.Shape { return nil }
func (m *Mean) Params() []*tensor.Tensor    { return nil }

func (m *Mean) String() string {
	if m.KeepDim {
		return fmt.Sprintf("Mean(dim=%d, keepdim=true)", m.Dim)
	}
	return fmt.Sprintf("Mean(dim=%d)", m.Dim)
}

// Max takes the maximum along one axis, collapsing it unless KeepDim is
// set.
type Max struct {
	Dim     int
	KeepDim bool
}

func (m *Max) Type() string                { return "Max" }
func (m *Max) ParamShapes() []shapes.Shape { return nil }
func (m *Max) Params() []*tensor.Tensor    { return nil }

func (m *Max) String() string {
	if m.KeepDim {
		return fmt.Sprintf("Max(dim=%d, keepdim=true)", m.Dim)
	}
	return fmt.Sprintf("Max(dim=%d)", m.Dim)
}
