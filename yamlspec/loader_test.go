package yamlspec

import (
	"context"
	"os"
	"testing"

	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(name string, v modelspec.Value) modelspec.Field {
	return modelspec.Field{Name: name, Value: v}
}

func layer(typ string, fields ...modelspec.Field) *modelspec.LayerDecl {
	return &modelspec.LayerDecl{Type: typ, Params: modelspec.Params{Fields: fields}}
}

func activation(name string) *modelspec.LayerDecl {
	v := modelspec.StrVal(name)
	return &modelspec.LayerDecl{Type: "Activation", Params: modelspec.Params{Scalar: &v}}
}

func singletons(layers ...*modelspec.LayerDecl) []*modelspec.Component {
	out := make([]*modelspec.Component, len(layers))
	for i, l := range layers {
		out[i] = &modelspec.Component{Layers: []*modelspec.LayerDecl{l}}
	}
	return out
}

// autoTaggingModel is the architecture testdata/autotagging.yaml declares.
func autoTaggingModel() *modelspec.Model {
	return &modelspec.Model{
		Name:       "AutoTagging",
		InputShape: shapes.Shape{1, 1, 128, 64},
		Blocks: []*modelspec.Block{
			{Components: singletons(
				layer("LayerNorm", field("normalized_shape", modelspec.IntVal(-1))),
				layer("Conv2d",
					field("in_channels", modelspec.IntVal(-1)),
					field("out_channels", modelspec.IntVal(8)),
					field("kernel_size", modelspec.IntsVal(5, 5)),
					field("stride", modelspec.IntsVal(2, 2))),
				activation("LeakyReLU"),
				layer("Conv2d",
					field("in_channels", modelspec.IntVal(-1)),
					field("out_channels", modelspec.IntVal(16)),
					field("kernel_size", modelspec.IntsVal(5, 5)),
					field("stride", modelspec.IntsVal(2, 2))),
				activation("LeakyReLU"),
				layer("Dropout", field("p", modelspec.FloatVal(0))),
			)},
			{Components: singletons(
				layer("Conv2d",
					field("in_channels", modelspec.IntVal(-1)),
					field("out_channels", modelspec.IntVal(64)),
					field("kernel_size", modelspec.IntsVal(29, 1)),
					field("stride", modelspec.IntsVal(1, 1))),
				activation("LeakyReLU"),
				layer("Squeeze", field("dim", modelspec.IntVal(2))),
				layer("Conv1d",
					field("in_channels", modelspec.IntVal(-1)),
					field("out_channels", modelspec.IntVal(128)),
					field("kernel_size", modelspec.IntVal(3)),
					field("stride", modelspec.IntVal(1))),
				activation("LeakyReLU"),
				layer("MaxPool1d", field("kernel_size", modelspec.IntVal(2))),
				layer("Permute", field("shape", modelspec.IntsVal(0, 2, 1))),
				layer("BatchNorm1dT", field("num_features", modelspec.IntVal(-1))),
				layer("Permute", field("shape", modelspec.IntsVal(0, 2, 1))),
			)},
			{Components: singletons(
				layer("Mean", field("dim", modelspec.IntVal(2))),
				layer("Dropout", field("p", modelspec.FloatVal(0))),
				layer("Linear",
					field("in_features", modelspec.IntVal(-1)),
					field("out_features", modelspec.IntVal(10))),
				activation("Sigmoid"),
			)},
		},
	}
}

func TestLoadCanonical(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), "testdata/autotagging.yaml")
	require.NoError(t, err)

	assert.True(t, model.Equal(autoTaggingModel()), "loaded model differs from the expected declaration")
	assert.Equal(t, 19, model.NumLayers())
}

func TestLoadPositions(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), "testdata/autotagging.yaml")
	require.NoError(t, err)

	first := model.Blocks[0].Components[0].Layers[0]
	assert.Equal(t, modelspec.Pos{File: "testdata/autotagging.yaml", Line: 6, Column: 12}, first.Pos)
}

func TestLoadPreservesSpelling(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), "testdata/autotagging.yaml")
	require.NoError(t, err)

	p, ok := model.Blocks[0].Components[5].Layers[0].Params.Lookup("p")
	require.True(t, ok)
	assert.Equal(t, modelspec.FloatKind, p.Kind)
	assert.Equal(t, "0.0", p.Raw)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "testdata/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading model document")
}

func TestRoundTrip(t *testing.T) {
	raw, err := os.ReadFile("testdata/autotagging.yaml")
	require.NoError(t, err)

	model, err := Parse(raw, "autotagging.yaml")
	require.NoError(t, err)

	assert.Equal(t, string(raw), string(Encode(model)), "canonical documents encode back byte for byte")
}

func TestRoundTripDropsComments(t *testing.T) {
	canonical, err := os.ReadFile("testdata/autotagging.yaml")
	require.NoError(t, err)
	commented, err := os.ReadFile("testdata/autotagging_commented.yaml")
	require.NoError(t, err)

	model, err := Parse(commented, "autotagging_commented.yaml")
	require.NoError(t, err)

	assert.True(t, model.Equal(autoTaggingModel()))
	assert.Equal(t, string(canonical), string(Encode(model)), "comments aside, the commented document is canonical")
}

func TestEncodeProgrammaticModel(t *testing.T) {
	// A model built in code has no literal spellings to preserve; the
	// encoder must still emit a document that parses back equal. The float
	// zero keeps a decimal point so it does not reparse as an int.
	model := autoTaggingModel()
	out := Encode(model)

	reparsed, err := Parse(out, "generated.yaml")
	require.NoError(t, err)
	assert.True(t, reparsed.Equal(model))
	assert.Contains(t, string(out), "p: 0.0")
}

func TestParseMultiLayerComponent(t *testing.T) {
	doc := `
model:
  name: Fused
  input_shape: [1, 64, 13]
  sequential_l:
    - component_l:
        - - [Conv1d, {in_channels: -1, out_channels: 128, kernel_size: 3, stride: 1}]
          - [Activation, ReLU]
        - [MaxPool1d, {kernel_size: 2}]
`
	model, err := Parse([]byte(doc), "fused.yaml")
	require.NoError(t, err)

	require.Len(t, model.Blocks, 1)
	require.Len(t, model.Blocks[0].Components, 2)
	assert.Len(t, model.Blocks[0].Components[0].Layers, 2, "explicit list groups layers in one component")
	assert.Len(t, model.Blocks[0].Components[1].Layers, 1)
	assert.Equal(t, "Activation", model.Blocks[0].Components[0].Layers[1].Type)
}

func TestParseEmptyAndNullParams(t *testing.T) {
	doc := `
model:
  name: Tiny
  input_shape: [1, 4]
  sequential_l:
    - component_l:
        - [AbsLayer, {}]
        - [AbsLayer, ~]
`
	model, err := Parse([]byte(doc), "tiny.yaml")
	require.NoError(t, err)

	for _, c := range model.Blocks[0].Components {
		assert.True(t, c.Layers[0].Params.IsEmpty())
	}
}

func TestParseResolvesAliases(t *testing.T) {
	doc := `
model:
  name: Anchored
  input_shape: [1, 1, 8, 8]
  sequential_l:
    - component_l:
        - [Conv2d, &head {in_channels: -1, out_channels: 8, kernel_size: [3, 3], stride: [1, 1], padding: same}]
        - [Activation, &act LeakyReLU]
        - [Conv2d, *head]
        - [Activation, *act]
`
	model, err := Parse([]byte(doc), "anchored.yaml")
	require.NoError(t, err)

	comps := model.Blocks[0].Components
	assert.True(t, comps[0].Layers[0].Equal(comps[2].Layers[0]), "aliased parameters equal the anchor")
	assert.True(t, comps[1].Layers[0].Equal(comps[3].Layers[0]))
}

func TestParseValueKinds(t *testing.T) {
	doc := `
model:
  name: Kinds
  input_shape: [1, 2]
  sequential_l:
    - component_l:
        - [BatchNorm1d, {num_features: 2, affine: false}]
`
	model, err := Parse([]byte(doc), "kinds.yaml")
	require.NoError(t, err)

	params := model.Blocks[0].Components[0].Layers[0].Params
	nf, _ := params.Lookup("num_features")
	assert.Equal(t, modelspec.IntKind, nf.Kind)
	assert.Equal(t, 2, nf.Int)
	affine, _ := params.Lookup("affine")
	assert.Equal(t, modelspec.BoolKind, affine.Kind)
	assert.False(t, affine.Bool)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"document not a mapping",
			`- 1`,
			"the document must be a mapping",
		},
		{
			"unknown top-level key",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [AbsLayer, {}]\nweights: x\n",
			`unknown top-level key "weights"`,
		},
		{
			"unknown model key",
			"model:\n  name: M\n  checkpoint: x\n  sequential_l:\n    - component_l:\n        - [AbsLayer, {}]\n",
			`unknown key "checkpoint" in model`,
		},
		{
			"missing sequential_l",
			"model:\n  name: M\n",
			`model "M" has no "sequential_l" list`,
		},
		{
			"sequential_l not a list",
			"model:\n  name: M\n  sequential_l: 3\n",
			"sequential_l must be a list of blocks",
		},
		{
			"block not a mapping",
			"model:\n  name: M\n  sequential_l:\n    - 3\n",
			"a block must be a mapping",
		},
		{
			"unknown block key",
			"model:\n  name: M\n  sequential_l:\n    - layers: []\n",
			`unknown key "layers" in block`,
		},
		{
			"empty block",
			"model:\n  name: M\n  sequential_l:\n    - component_l: []\n",
			"block 1 is empty",
		},
		{
			"component not a list",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - Conv2d\n",
			"a component must be a layer pair or a list of layer pairs",
		},
		{
			"one-element layer pair",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - - [AbsLayer, {}]\n          - [AbsLayer]\n",
			"a layer declaration must be a [type, params] pair, got 1 element(s)",
		},
		{
			"layer type not a string",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - - [5, {}]\n",
			"a layer type must be a string",
		},
		{
			"params not a mapping or scalar",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [Permute, [0, 2, 1]]\n",
			"layer parameters must be a mapping or a single scalar",
		},
		{
			"duplicate parameter key",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [Dropout, {p: 0.0, p: 0.1}]\n",
			`duplicate key "p" in layer parameters`,
		},
		{
			"null parameter value",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [Dropout, {p: null}]\n",
			"null is not a valid parameter value",
		},
		{
			"nested mapping parameter value",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [Dropout, {p: {rate: 1}}]\n",
			`parameter "p" must be a scalar or a list of integers`,
		},
		{
			"non-integer list element",
			"model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [Conv2d, {kernel_size: [5, five]}]\n",
			`parameter "kernel_size": list elements must be integers`,
		},
		{
			"input_shape not a list",
			"model:\n  name: M\n  input_shape: 128\n  sequential_l:\n    - component_l:\n        - [AbsLayer, {}]\n",
			"input_shape must be a list of integers",
		},
		{
			"non-positive input_shape",
			"model:\n  name: M\n  input_shape: [1, 0]\n  sequential_l:\n    - component_l:\n        - [AbsLayer, {}]\n",
			"input_shape",
		},
		{
			"name not a string",
			"model:\n  name: [1]\n  sequential_l:\n    - component_l:\n        - [AbsLayer, {}]\n",
			"name must be a string",
		},
		{
			"missing name",
			"model:\n  sequential_l:\n    - component_l:\n        - [AbsLayer, {}]\n",
			"model name is empty",
		},
		{
			"broken yaml",
			"model: [unclosed\n",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "bad.yaml")
			require.ErrorIs(t, err, modelspec.ErrSchema)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	doc := "model:\n  name: M\n  sequential_l:\n    - component_l:\n        - [Dropout, {p: null}]\n"
	_, err := Parse([]byte(doc), "bad.yaml")

	var e *modelspec.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "bad.yaml", e.Pos.File)
	assert.Equal(t, 5, e.Pos.Line)
}
