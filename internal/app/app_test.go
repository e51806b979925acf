package app_test

import (
	"strings"
	"testing"

	"github.com/geoffroypeeters/modelfactory/internal/app"
	"github.com/geoffroypeeters/modelfactory/internal/testutil"
	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyYAML = `model:
  name: Tiny
  input_shape: [1, 64, 13]
  sequential_l:
    - component_l:
        - [Conv1d, {in_channels: -1, out_channels: 16, kernel_size: 3, stride: 1}]
        - [Activation, ReLU]
        - [Flatten, {}]
        - [Linear, {in_features: -1, out_features: 10}]
`

const tinyHCL = `model "TinyHCL" {
  input_shape = [1, 64, 13]

  block {
    layer "Conv1d" {
      in_channels  = -1
      out_channels = 16
      kernel_size  = 3
      stride       = 1
    }
    layer "Activation" "ReLU" {}
    layer "Flatten" {}
    layer "Linear" {
      in_features  = -1
      out_features = 10
    }
  }
}
`

func TestRunBuildsYAMLDocument(t *testing.T) {
	t.Parallel()

	// Act: Build the document and capture the summary.
	result := testutil.RunAppTest(t, map[string]string{"tiny.yaml": tinyYAML}, nil)

	// Assert: The summary names the model and carries the resolved shapes.
	require.NoError(t, result.Err)
	assert.Contains(t, result.Stdout, "Model: Tiny")
	assert.Contains(t, result.Stdout, "Input: (1, 64, 13)")
	assert.Contains(t, result.Stdout, "(1, 10)")
	assert.Contains(t, result.Stdout, "Total params: 4858")
}

func TestRunBuildsHCLDocument(t *testing.T) {
	t.Parallel()

	result := testutil.RunAppTest(t, map[string]string{"tiny.hcl": tinyHCL}, nil)
	require.NoError(t, result.Err)

	assert.Contains(t, result.Stdout, "Model: TinyHCL")
	assert.Contains(t, result.Stdout, "Total params: 4858")
}

// A directory is walked for every supported format, in sorted order.
func TestRunDirectoryBuildsAllDocuments(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"tiny.yaml":        tinyYAML,
		"nested/tiny.hcl":  tinyHCL,
		"ignored/notes.md": "not a model",
	}
	result := testutil.RunAppTest(t, files, nil)
	require.NoError(t, result.Err)

	hclAt := strings.Index(result.Stdout, "Model: TinyHCL")
	yamlAt := strings.Index(result.Stdout, "Model: Tiny\n")
	require.GreaterOrEqual(t, hclAt, 0)
	require.GreaterOrEqual(t, yamlAt, 0)
	assert.Less(t, hclAt, yamlAt, "nested/tiny.hcl sorts before tiny.yaml")
}

func TestRunSingleFile(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"tiny.yaml": tinyYAML,
		"tiny.hcl":  tinyHCL,
	}
	result := testutil.RunAppTest(t, files, &app.Config{ConfigPath: "tiny.yaml"})
	require.NoError(t, result.Err)

	assert.Contains(t, result.Stdout, "Model: Tiny")
	assert.NotContains(t, result.Stdout, "TinyHCL")
}

func TestRunMaterialize(t *testing.T) {
	t.Parallel()

	cfg := &app.Config{Materialize: true, Seed: 42}
	result := testutil.RunAppTest(t, map[string]string{"tiny.yaml": tinyYAML}, cfg)
	require.NoError(t, result.Err)

	assert.Contains(t, result.LogOutput, "Parameters materialized.")
	assert.Contains(t, result.LogOutput, "params=4858")
}

func TestRunJSONLogFormat(t *testing.T) {
	t.Parallel()

	cfg := &app.Config{LogFormat: "json", LogLevel: "debug"}
	result := testutil.RunAppTest(t, map[string]string{"tiny.yaml": tinyYAML}, cfg)
	require.NoError(t, result.Err)

	assert.Contains(t, result.LogOutput, `"msg":"App.Run method started."`)
	assert.NotContains(t, result.Stdout, `"msg"`, "logs must not leak into the summary writer")
}

func TestRunInputShapeOverride(t *testing.T) {
	t.Parallel()

	cfg := &app.Config{InputShape: shapes.Shape{4, 64, 13}}
	result := testutil.RunAppTest(t, map[string]string{"tiny.yaml": tinyYAML}, cfg)
	require.NoError(t, result.Err)

	assert.Contains(t, result.Stdout, "Input: (4, 64, 13)")
	assert.Contains(t, result.Stdout, "(4, 10)")
}

func TestRunBuildErrorNamesDocument(t *testing.T) {
	t.Parallel()

	// Arrange: The Conv1d declaration is missing its required out_channels.
	bad := `model:
  name: Bad
  input_shape: [1, 64, 13]
  sequential_l:
    - component_l:
        - [Conv1d, {in_channels: -1, kernel_size: 3, stride: 1}]
`
	result := testutil.RunAppTest(t, map[string]string{"bad.yaml": bad}, nil)
	require.Error(t, result.Err)

	// Assert: The error names the document and the offending parameter.
	assert.ErrorIs(t, result.Err, modelspec.ErrParamValidation)
	assert.Contains(t, result.Err.Error(), "building")
	assert.Contains(t, result.Err.Error(), "bad.yaml")
	assert.Contains(t, result.Err.Error(), `missing required parameter "out_channels"`)
}

func TestRunSchemaErrorPropagates(t *testing.T) {
	t.Parallel()

	result := testutil.RunAppTest(t, map[string]string{"broken.yaml": "model: ["}, nil)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, modelspec.ErrSchema)
}

func TestRunUnsupportedExtension(t *testing.T) {
	t.Parallel()

	files := map[string]string{"model.json": `{"name": "nope"}`}
	result := testutil.RunAppTest(t, files, &app.Config{ConfigPath: "model.json"})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "unsupported model document")
}

func TestRunEmptyDirectory(t *testing.T) {
	t.Parallel()

	result := testutil.RunAppTest(t, nil, nil)
	require.NoError(t, result.Err)
	assert.Empty(t, result.Stdout)
	assert.Contains(t, result.LogOutput, "No model documents found")
}

func TestRunMissingPath(t *testing.T) {
	t.Parallel()

	result := testutil.RunAppTest(t, nil, &app.Config{ConfigPath: "absent.yaml"})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "resolving model path")
}
