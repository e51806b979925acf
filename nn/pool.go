package nn

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// MaxPool1d downsamples the temporal axis of a (batch, channels, length)
// tensor.
type MaxPool1d struct {
	KernelSize int
	Stride     int
}

func (p *MaxPool1d) Type() string                { return "MaxPool1d" }
func (p *MaxPool1d) ParamShapes() []shapes.Shape { return nil }
func (p *MaxPool1d) Params() []*tensor.Tensor    { return nil }

func (p *MaxPool1d) String() string {
	return fmt.Sprintf("MaxPool1d(kernel_size=%d, stride=%d)", p.KernelSize, p.Stride)
}

// MaxPool2d downsamples both spatial axes of a (batch, channels, height,
// width) tensor.
type MaxPool2d struct {
	KernelSize [2]int
	Stride     [2]int
}

func (p *MaxPool2d) Type() string                { return "MaxPool2d" }
func (p *MaxPool2d) ParamShapes() []shapes.Shape { return nil }
func (p *MaxPool2d) Params() []*tensor.Tensor    { return nil }

func (p *MaxPool2d) String() string {
	return fmt.Sprintf("MaxPool2d(kernel_size=%s, stride=%s)", pair(p.KernelSize), pair(p.Stride))
}
