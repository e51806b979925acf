package nn

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// Linear applies an affine projection to the trailing feature axis.
type Linear struct {
	InFeatures  int
	OutFeatures int

	Weight *tensor.Tensor // (out_features, in_features)
	Bias   *tensor.Tensor // (out_features)
}

func (l *Linear) Type() string { return "Linear" }

func (l *Linear) ParamShapes() []shapes.Shape {
	return []shapes.Shape{
		{l.OutFeatures, l.InFeatures},
		{l.OutFeatures},
	}
}

func (l *Linear) Params() []*tensor.Tensor { return []*tensor.Tensor{l.Weight, l.Bias} }

func (l *Linear) Materialize(init *Init) {
	l.Weight = tensor.New(l.OutFeatures, l.InFeatures)
	l.Bias = tensor.New(l.OutFeatures)
	init.Uniform(l.Weight, l.InFeatures)
	init.Uniform(l.Bias, l.InFeatures)
}

func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in_features=%d, out_features=%d)", l.InFeatures, l.OutFeatures)
}
