package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/geoffroypeeters/modelfactory/tensor"
)

// Materializer is implemented by layers carrying learnable parameters.
type Materializer interface {
	// Materialize allocates and initializes the layer's parameter tensors.
	Materialize(init *Init)
}

// Init supplies parameter initialization for materialized layers: weights
// and biases draw from U(-1/sqrt(fanIn), +1/sqrt(fanIn)); normalization
// gains start at one and offsets at zero.
type Init struct {
	src rand.Source
}

// Uniform fills t with samples from U(-1/sqrt(fanIn), +1/sqrt(fanIn)).
func (in *Init) Uniform(t *tensor.Tensor, fanIn int) {
	bound := 1 / math.Sqrt(float64(fanIn))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: in.src}
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
}

// MaterializeOption configures parameter materialization.
type MaterializeOption func(*materializeOptions)

type materializeOptions struct {
	seed uint64
}

// WithSeed sets the random seed. The default is 1.
func WithSeed(seed uint64) MaterializeOption {
	return func(o *materializeOptions) { o.seed = seed }
}

// Materialize allocates and initializes every learnable parameter tensor
// in the network, in document order. The result is deterministic for a
// fixed seed.
func (n *Network) Materialize(opts ...MaterializeOption) {
	o := materializeOptions{seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	init := &Init{src: rand.NewSource(o.seed)}
	for _, u := range n.Units {
		if m, ok := u.Layer.(Materializer); ok {
			m.Materialize(init)
		}
	}
}
