// Package tensor implements the minimal n-dimensional container used for
// materialized layer parameters. Values live in a flat row-major slice;
// no arithmetic kernels are provided here.
package tensor

import "fmt"

// Tensor is a dense n-dimensional array of float64 values in row-major order.
type Tensor struct {
	Data  []float64
	Shape []int
}

// New allocates a zero-filled tensor with the given dimensions.
func New(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: dimension must be positive, got %d", d))
		}
		n *= d
	}
	return &Tensor{
		Data:  make([]float64, n),
		Shape: append([]int(nil), shape...),
	}
}

// Numel returns the number of stored elements.
func (t *Tensor) Numel() int { return len(t.Data) }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.Shape) }

// offset converts multi-dimensional indices to a flat position.
func (t *Tensor) offset(idx ...int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: got %d indices for rank %d", len(idx), len(t.Shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.Shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d of size %d", x, i, t.Shape[i]))
		}
		off = off*t.Shape[i] + x
	}
	return off
}

// At returns the element at the given indices.
func (t *Tensor) At(idx ...int) float64 { return t.Data[t.offset(idx...)] }

// Set stores v at the given indices.
func (t *Tensor) Set(v float64, idx ...int) { t.Data[t.offset(idx...)] = v }

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.Data {
		t.Data[i] = v
	}
}
