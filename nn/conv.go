package nn

import (
	"fmt"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// pair renders a two-dimensional hyperparameter, e.g. "(5, 5)".
func pair(p [2]int) string { return fmt.Sprintf("(%d, %d)", p[0], p[1]) }

// Conv1d is a temporal convolution over (batch, channels, length) input.
type Conv1d struct {
	InChannels  int
	OutChannels int
	KernelSize  int
	Stride      int

	Weight *tensor.Tensor // (out_channels, in_channels, kernel)
	Bias   *tensor.Tensor // (out_channels)
}

func (c *Conv1d) Type() string { return "Conv1d" }

func (c *Conv1d) ParamShapes() []shapes.Shape {
	return []shapes.Shape{
		{c.OutChannels, c.InChannels, c.KernelSize},
		{c.OutChannels},
	}
}

func (c *Conv1d) Params() []*tensor.Tensor { return []*tensor.Tensor{c.Weight, c.Bias} }

func (c *Conv1d) Materialize(init *Init) {
	c.Weight = tensor.New(c.OutChannels, c.InChannels, c.KernelSize)
	c.Bias = tensor.New(c.OutChannels)
	fanIn := c.InChannels * c.KernelSize
	init.Uniform(c.Weight, fanIn)
	init.Uniform(c.Bias, fanIn)
}

func (c *Conv1d) String() string {
	return fmt.Sprintf("Conv1d(%d, %d, kernel_size=%d, stride=%d)",
		c.InChannels, c.OutChannels, c.KernelSize, c.Stride)
}

// Conv2d is a spatial convolution over (batch, channels, height, width)
// input. Padding is "valid" (none) or "same" (output keeps the spatial
// size; requires stride 1).
type Conv2d struct {
	InChannels  int
	OutChannels int
	KernelSize  [2]int
	Stride      [2]int
	Padding     string

	Weight *tensor.Tensor // (out_channels, in_channels, kh, kw)
	Bias   *tensor.Tensor // (out_channels)
}

func (c *Conv2d) Type() string { return "Conv2d" }

func (c *Conv2d) ParamShapes() []shapes.Shape {
	return []shapes.Shape{
		{c.OutChannels, c.InChannels, c.KernelSize[0], c.KernelSize[1]},
		{c.OutChannels},
	}
}

func (c *Conv2d) Params() []*tensor.Tensor { return []*tensor.Tensor{c.Weight, c.Bias} }

func (c *Conv2d) Materialize(init *Init) {
	c.Weight = tensor.New(c.OutChannels, c.InChannels, c.KernelSize[0], c.KernelSize[1])
	c.Bias = tensor.New(c.OutChannels)
	fanIn := c.InChannels * c.KernelSize[0] * c.KernelSize[1]
	init.Uniform(c.Weight, fanIn)
	init.Uniform(c.Bias, fanIn)
}

func (c *Conv2d) String() string {
	s := fmt.Sprintf("Conv2d(%d, %d, kernel_size=%s, stride=%s",
		c.InChannels, c.OutChannels, pair(c.KernelSize), pair(c.Stride))
	if c.Padding == "same" {
		s += ", padding=same"
	}
	return s + ")"
}

// ConvTranspose2d is a transposed spatial convolution used for upsampling.
type ConvTranspose2d struct {
	InChannels  int
	OutChannels int
	KernelSize  [2]int
	Stride      [2]int

	Weight *tensor.Tensor // (in_channels, out_channels, kh, kw)
	Bias   *tensor.Tensor // (out_channels)
}

func (c *ConvTranspose2d) Type() string { return "ConvTranspose2d" }

func (c *ConvTranspose2d) ParamShapes() []shapes.Shape {
	return []shapes.Shape{
		{c.InChannels, c.OutChannels, c.KernelSize[0], c.KernelSize[1]},
		{c.OutChannels},
	}
}

func (c *ConvTranspose2d) Params() []*tensor.Tensor { return []*tensor.Tensor{c.Weight, c.Bias} }

func (c *ConvTranspose2d) Materialize(init *Init) {
	c.Weight = tensor.New(c.InChannels, c.OutChannels, c.KernelSize[0], c.KernelSize[1])
	c.Bias = tensor.New(c.OutChannels)
	fanIn := c.InChannels * c.KernelSize[0] * c.KernelSize[1]
	init.Uniform(c.Weight, fanIn)
	init.Uniform(c.Bias, fanIn)
}

func (c *ConvTranspose2d) String() string {
	return fmt.Sprintf("ConvTranspose2d(%d, %d, kernel_size=%s, stride=%s)",
		c.InChannels, c.OutChannels, pair(c.KernelSize), pair(c.Stride))
}
