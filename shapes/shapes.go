// Package shapes provides the tensor shape type threaded through model
// construction, along with the window arithmetic shared by convolution and
// pooling layers.
package shapes

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape is an ordered list of tensor dimensions, including the leading
// batch dimension. A nil or empty Shape means the shape is unknown.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s) }

// Known reports whether the shape carries any dimension information.
func (s Shape) Known() bool { return len(s) > 0 }

// Numel returns the total number of elements, or 0 for an unknown shape.
func (s Shape) Numel() int {
	if !s.Known() {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("shape dimension %d is %d, want positive", i, d)
		}
	}
	return nil
}

// String renders the shape as "(1, 8, 62, 30)". Unknown shapes render as "(?)".
func (s Shape) String() string {
	if !s.Known() {
		return "(?)"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ConvOut returns the output length of a strided window over an input
// length: floor((in-kernel)/stride) + 1. The result is not positive when
// the kernel exceeds the input; callers are expected to reject that.
func ConvOut(in, kernel, stride int) int {
	return (in-kernel)/stride + 1
}
