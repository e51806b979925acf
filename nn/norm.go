package nn

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// LayerNorm normalizes over the trailing dimensions given by
// NormalizedShape.
type LayerNorm struct {
	NormalizedShape shapes.Shape

	Gamma *tensor.Tensor
	Beta  *tensor.Tensor
}

func (l *LayerNorm) Type() string { return "LayerNorm" }

func (l *LayerNorm) ParamShapes() []shapes.Shape {
	return []shapes.Shape{l.NormalizedShape.Clone(), l.NormalizedShape.Clone()}
}

func (l *LayerNorm) Params() []*tensor.Tensor { return []*tensor.Tensor{l.Gamma, l.Beta} }

func (l *LayerNorm) Materialize(init *Init) {
	l.Gamma = tensor.New(l.NormalizedShape...)
	l.Beta = tensor.New(l.NormalizedShape...)
	l.Gamma.Fill(1)
}

func (l *LayerNorm) String() string {
	return fmt.Sprintf("LayerNorm(%s)", l.NormalizedShape)
}

// BatchNorm1d applies batch normalization over the trailing feature axis
// of a (batch, features) tensor.
type BatchNorm1d struct {
	NumFeatures int
	Affine      bool

	Gamma *tensor.Tensor
	Beta  *tensor.Tensor
}

func (b *BatchNorm1d) Type() string { return "BatchNorm1d" }

func (b *BatchNorm1d) ParamShapes() []shapes.Shape {
	if !b.Affine {
		return nil
	}
	return []shapes.Shape{{b.NumFeatures}, {b.NumFeatures}}
}

func (b *BatchNorm1d) Params() []*tensor.Tensor {
	if !b.Affine {
		return nil
	}
	return []*tensor.Tensor{b.Gamma, b.Beta}
}

func (b *BatchNorm1d) Materialize(init *Init) {
	if !b.Affine {
		return
	}
	b.Gamma = tensor.New(b.NumFeatures)
	b.Beta = tensor.New(b.NumFeatures)
	b.Gamma.Fill(1)
}

func (b *BatchNorm1d) String() string {
	if !b.Affine {
		return fmt.Sprintf("BatchNorm1d(%d, affine=false)", b.NumFeatures)
	}
	return fmt.Sprintf("BatchNorm1d(%d)", b.NumFeatures)
}

// BatchNorm1dT normalizes the trailing feature axis of a (batch, time,
// features) tensor by transposing around a channel-wise batch norm.
type BatchNorm1dT struct {
	NumFeatures int

	Gamma *tensor.Tensor
	Beta  *tensor.Tensor
}

func (b *BatchNorm1dT) Type() string { return "BatchNorm1dT" }

func (b *BatchNorm1dT) ParamShapes() []shapes.Shape {
	return []shapes.Shape{{b.NumFeatures}, {b.NumFeatures}}
}

func (b *BatchNorm1dT) Params() []*tensor.Tensor { return []*tensor.Tensor{b.Gamma, b.Beta} }

func (b *BatchNorm1dT) Materialize(init *Init) {
	b.Gamma = tensor.New(b.NumFeatures)
	b.Beta = tensor.New(b.NumFeatures)
	b.Gamma.Fill(1)
}

func (b *BatchNorm1dT) String() string {
	return fmt.Sprintf("BatchNorm1dT(%d)", b.NumFeatures)
}

// BatchNorm2d applies batch normalization over the channel axis of a
// (batch, channels, height, width) tensor.
type BatchNorm2d struct {
	NumFeatures int

	Gamma *tensor.Tensor
	Beta  *tensor.Tensor
}

func (b *BatchNorm2d) Type() string { return "BatchNorm2d" }

func (b *BatchNorm2d) ParamShapes() []shapes.Shape {
	return []shapes.Shape{{b.NumFeatures}, {b.NumFeatures}}
}

func (b *BatchNorm2d) Params() []*tensor.Tensor { return []*tensor.Tensor{b.Gamma, b.Beta} }

func (b *BatchNorm2d) Materialize(init *Init) {
	b.Gamma = tensor.New(b.NumFeatures)
	b.Beta = tensor.New(b.NumFeatures)
	b.Gamma.Fill(1)
}

func (b *BatchNorm2d) String() string {
	return fmt.Sprintf("BatchNorm2d(%d)", b.NumFeatures)
}
