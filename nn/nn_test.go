package nn

import (
	"math"
	"strings"
	"testing"

	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamShapes(t *testing.T) {
	tests := []struct {
		name  string
		layer Layer
		want  []shapes.Shape
	}{
		{"Conv1d", &Conv1d{InChannels: 64, OutChannels: 128, KernelSize: 3, Stride: 1},
			[]shapes.Shape{{128, 64, 3}, {128}}},
		{"Conv2d", &Conv2d{InChannels: 1, OutChannels: 8, KernelSize: [2]int{5, 5}, Stride: [2]int{2, 2}, Padding: "valid"},
			[]shapes.Shape{{8, 1, 5, 5}, {8}}},
		{"ConvTranspose2d", &ConvTranspose2d{InChannels: 16, OutChannels: 8, KernelSize: [2]int{2, 2}, Stride: [2]int{2, 2}},
			[]shapes.Shape{{16, 8, 2, 2}, {8}}},
		{"Linear", &Linear{InFeatures: 128, OutFeatures: 10},
			[]shapes.Shape{{10, 128}, {10}}},
		{"LayerNorm", &LayerNorm{NormalizedShape: shapes.Shape{1, 128, 64}},
			[]shapes.Shape{{1, 128, 64}, {1, 128, 64}}},
		{"BatchNorm1dT", &BatchNorm1dT{NumFeatures: 128},
			[]shapes.Shape{{128}, {128}}},
		{"BatchNorm2d", &BatchNorm2d{NumFeatures: 8},
			[]shapes.Shape{{8}, {8}}},
		{"BatchNorm1d affine", &BatchNorm1d{NumFeatures: 32, Affine: true},
			[]shapes.Shape{{32}, {32}}},
		{"BatchNorm1d without affine", &BatchNorm1d{NumFeatures: 32}, nil},
		{"PReLU slope", &Activation{Name: "PReLU"}, []shapes.Shape{{1}}},
		{"LeakyReLU", &Activation{Name: "LeakyReLU"}, nil},
		{"Dropout", &Dropout{P: 0.5}, nil},
		{"MaxPool1d", &MaxPool1d{KernelSize: 2, Stride: 2}, nil},
		{"Squeeze", &Squeeze{Dim: 2}, nil},
		{"Permute", &Permute{Order: []int{0, 2, 1}}, nil},
		{"Mean", &Mean{Dim: 2}, nil},
		{"AbsLayer", &Abs{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layer.ParamShapes())
		})
	}
}

func TestUnitParamCount(t *testing.T) {
	u := &Unit{Layer: &LayerNorm{NormalizedShape: shapes.Shape{1, 128, 64}}}
	assert.Equal(t, int64(2*128*64), u.ParamCount())

	u = &Unit{Layer: &Conv2d{InChannels: 1, OutChannels: 8, KernelSize: [2]int{5, 5}, Stride: [2]int{2, 2}}}
	assert.Equal(t, int64(8*1*5*5+8), u.ParamCount())
}

func TestLayerStrings(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{&Conv2d{InChannels: 1, OutChannels: 8, KernelSize: [2]int{5, 5}, Stride: [2]int{2, 2}, Padding: "valid"},
			"Conv2d(1, 8, kernel_size=(5, 5), stride=(2, 2))"},
		{&Conv2d{InChannels: 8, OutChannels: 8, KernelSize: [2]int{3, 3}, Stride: [2]int{1, 1}, Padding: "same"},
			"Conv2d(8, 8, kernel_size=(3, 3), stride=(1, 1), padding=same)"},
		{&Conv1d{InChannels: 64, OutChannels: 128, KernelSize: 3, Stride: 1},
			"Conv1d(64, 128, kernel_size=3, stride=1)"},
		{&Activation{Name: "LeakyReLU"}, "LeakyReLU()"},
		{&Dropout{P: 0}, "Dropout(p=0)"},
		{&Dropout{P: 0.25}, "Dropout(p=0.25)"},
		{&Squeeze{Dim: 2}, "Squeeze(dim=2)"},
		{&Permute{Order: []int{0, 2, 1}}, "Permute(0, 2, 1)"},
		{&Linear{InFeatures: 128, OutFeatures: 10}, "Linear(in_features=128, out_features=10)"},
		{&LayerNorm{NormalizedShape: shapes.Shape{128, 64}}, "LayerNorm((128, 64))"},
		{&Mean{Dim: 2}, "Mean(dim=2)"},
		{&Mean{Dim: 1, KeepDim: true}, "Mean(dim=1, keepdim=true)"},
		{&MaxPool1d{KernelSize: 2, Stride: 2}, "MaxPool1d(kernel_size=2, stride=2)"},
		{&Flatten{StartDim: 1}, "Flatten(start_dim=1)"},
		{&Abs{}, "AbsLayer()"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layer.String())
		})
	}
}

func TestIsActivationName(t *testing.T) {
	for _, name := range ActivationNames {
		assert.True(t, IsActivationName(name), name)
	}
	assert.False(t, IsActivationName("Swish"))
	assert.False(t, IsActivationName("relu"))
}

// headNetwork is the classification tail of the tagging model: an
// embedding averaged over time, projected to 10 classes.
func headNetwork() *Network {
	return &Network{
		Name:  "Head",
		Input: shapes.Shape{1, 128, 5},
		Units: []*Unit{
			{Block: 1, Component: 1, Layer: &Mean{Dim: 2}, In: shapes.Shape{1, 128, 5}, Out: shapes.Shape{1, 128}},
			{Block: 1, Component: 2, Layer: &Linear{InFeatures: 128, OutFeatures: 10}, In: shapes.Shape{1, 128}, Out: shapes.Shape{1, 10}},
			{Block: 1, Component: 3, Layer: &Activation{Name: "Sigmoid"}, In: shapes.Shape{1, 10}, Out: shapes.Shape{1, 10}},
		},
	}
}

func TestNetworkAccessors(t *testing.T) {
	n := headNetwork()

	assert.True(t, n.Output().Equal(shapes.Shape{1, 10}))
	assert.Len(t, n.Layers(), 3)
	assert.Equal(t, int64(128*10+10), n.ParamCount())
	assert.Empty(t, n.Params(), "no tensors before materialization")
}

func TestNetworkSummary(t *testing.T) {
	s := headNetwork().Summary()

	assert.Contains(t, s, "Model: Head")
	assert.Contains(t, s, "Input: (1, 128, 5)")
	assert.Contains(t, s, "Mean(dim=2)")
	assert.Contains(t, s, "Linear(in_features=128, out_features=10)")
	assert.Contains(t, s, "(1, 10)")
	assert.Contains(t, s, "Total params: 1290")
	// One header, three unit rows, a title, input line, and the total.
	assert.Len(t, strings.Split(strings.TrimRight(s, "\n"), "\n"), 7)
}

func TestMaterialize(t *testing.T) {
	n := headNetwork()
	n.Materialize()

	params := n.Params()
	require.Len(t, params, 2, "linear weight and bias")
	assert.Equal(t, []int{10, 128}, params[0].Shape)
	assert.Equal(t, []int{10}, params[1].Shape)

	// Uniform fan-in bound for in_features=128.
	bound := 1.0 / math.Sqrt(128)
	for _, v := range params[0].Data {
		assert.Less(t, v, bound)
		assert.Greater(t, v, -bound)
	}
}

func TestMaterializeDeterminism(t *testing.T) {
	a, b := headNetwork(), headNetwork()
	a.Materialize(WithSeed(42))
	b.Materialize(WithSeed(42))
	require.Equal(t, a.Params()[0].Data, b.Params()[0].Data)

	c := headNetwork()
	c.Materialize(WithSeed(43))
	assert.NotEqual(t, a.Params()[0].Data, c.Params()[0].Data)
}

func TestMaterializeNormAndSlope(t *testing.T) {
	n := &Network{
		Name: "Norms",
		Units: []*Unit{
			{Block: 1, Component: 1, Layer: &BatchNorm1dT{NumFeatures: 4}},
			{Block: 1, Component: 2, Layer: &Activation{Name: "PReLU"}},
		},
	}
	n.Materialize()

	bn := n.Units[0].Layer.(*BatchNorm1dT)
	assert.Equal(t, []float64{1, 1, 1, 1}, bn.Gamma.Data)
	assert.Equal(t, []float64{0, 0, 0, 0}, bn.Beta.Data)

	act := n.Units[1].Layer.(*Activation)
	require.NotNil(t, act.Slope)
	assert.Equal(t, []float64{0.25}, act.Slope.Data)
}
