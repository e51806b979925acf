package modelspec

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	err := &Error{
		Kind: ErrParamValidation,
		Pos:  Pos{File: "autotagging.yaml", Line: 12, Column: 9},
		Path: "block 1, component 2, layer 1 (Conv2d)",
		Msg:  `missing required parameter "out_channels"`,
	}

	assert.Equal(t,
		`autotagging.yaml:12:9: block 1, component 2, layer 1 (Conv2d): invalid layer parameter: missing required parameter "out_channels"`,
		err.Error())
}

func TestErrorFormatBare(t *testing.T) {
	err := &Error{Kind: ErrUnknownLayerType, Msg: `"Frobnicate" is not a registered layer type`}

	assert.Equal(t, `unknown layer type: "Frobnicate" is not a registered layer type`, err.Error())
}

func TestErrorClassification(t *testing.T) {
	err := Schemaf(Pos{File: "m.yaml", Line: 2, Column: 1}, "layer entry must be a 2-element pair")

	assert.ErrorIs(t, err, ErrSchema)
	assert.NotErrorIs(t, err, ErrParamValidation)

	// Wrapping preserves the classification.
	wrapped := fmt.Errorf("building m.yaml: %w", err)
	assert.ErrorIs(t, wrapped, ErrSchema)

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, 2, e.Pos.Line)
}

func TestAt(t *testing.T) {
	pos := Pos{File: "m.yaml", Line: 7, Column: 11}

	t.Run("fills missing position and path", func(t *testing.T) {
		base := &Error{Kind: ErrShapeInference, Msg: "no input shape available"}
		got := At(base, pos, "block 1, component 1, layer 1 (Conv2d)")

		var e *Error
		require.True(t, errors.As(got, &e))
		assert.Equal(t, pos, e.Pos)
		assert.Equal(t, "block 1, component 1, layer 1 (Conv2d)", e.Path)
		// The original stays untouched.
		assert.Equal(t, Pos{}, base.Pos)
	})

	t.Run("keeps an existing position", func(t *testing.T) {
		base := &Error{Kind: ErrSchema, Pos: Pos{File: "other.yaml", Line: 1, Column: 1}, Msg: "x"}
		got := At(base, pos, "path")

		var e *Error
		require.True(t, errors.As(got, &e))
		assert.Equal(t, "other.yaml", e.Pos.File)
	})

	t.Run("passes through foreign errors", func(t *testing.T) {
		plain := errors.New("plain")
		assert.Equal(t, plain, At(plain, pos, "path"))
	})
}
