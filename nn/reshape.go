package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/geoffroypeeters/modelfactory/tensor"
)

// Squeeze removes a size-one dimension.
type Squeeze struct {
	Dim int
}

func (s *Squeeze) Type() string                { return "Squeeze" }
func (s *Squeeze) ParamShapes() []shapes.Shape { return nil }
func (s *Squeeze) Params() []*tensor.Tensor    { return nil }
func (s *Squeeze) String() string              { return fmt.Sprintf("Squeeze(dim=%d)", s.Dim) }

// Permute reorders dimensions; Order must be a permutation of the input
// rank.
type Permute struct {
	Order []int
}

func (p *Permute) Type() string                { return "Permute" }
func (p *Permute) ParamShapes() []shapes.Shape { return nil }
func (p *Permute) Params() []*tensor.Tensor    { return nil }

func (p *Permute) String() string {
	parts := make([]string, len(p.Order))
	for i, d := range p.Order {
		parts[i] = strconv.Itoa(d)
	}
	return "Permute(" + strings.Join(parts, ", ") + ")"
}

// Flatten collapses every dimension from StartDim onward into one.
type Flatten struct {
	StartDim int
}

func (f *Flatten) Type() string                { return "Flatten" }
func (f *Flatten) ParamShapes() []shapes.Shape { return nil }
func (f *Flatten) Params() []*tensor.Tensor    { return nil }
func (f *Flatten) String() string              { return fmt.Sprintf("Flatten(start_dim=%d)", f.StartDim) }
