package shapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeBasics(t *testing.T) {
	s := Shape{1, 8, 62, 30}

	assert.Equal(t, 4, s.Rank())
	assert.True(t, s.Known())
	assert.Equal(t, 1*8*62*30, s.Numel())
	assert.Equal(t, "(1, 8, 62, 30)", s.String())
	require.NoError(t, s.Validate())
}

func TestShapeUnknown(t *testing.T) {
	var s Shape

	assert.False(t, s.Known())
	assert.Equal(t, 0, s.Numel())
	assert.Equal(t, "(?)", s.String())
	assert.Nil(t, s.Clone())
}

func TestShapeClone(t *testing.T) {
	s := Shape{1, 2, 3}
	c := s.Clone()

	require.True(t, s.Equal(c))
	c[0] = 99
	assert.Equal(t, 1, s[0], "clone must not alias the original")
}

func TestShapeEqual(t *testing.T) {
	assert.True(t, Shape{1, 2}.Equal(Shape{1, 2}))
	assert.False(t, Shape{1, 2}.Equal(Shape{2, 1}))
	assert.False(t, Shape{1, 2}.Equal(Shape{1, 2, 3}))
	assert.True(t, Shape(nil).Equal(Shape{}))
}

func TestShapeValidate(t *testing.T) {
	assert.Error(t, Shape{1, 0, 3}.Validate())
	assert.Error(t, Shape{-1}.Validate())
	assert.NoError(t, Shape(nil).Validate())
}

func TestConvOut(t *testing.T) {
	tests := []struct {
		name               string
		in, kernel, stride int
		want               int
	}{
		{"mel stem height", 128, 5, 2, 62},
		{"mel stem width", 64, 5, 2, 30},
		{"second stage height", 62, 5, 2, 29},
		{"second stage width", 30, 5, 2, 13},
		{"collapse to one", 29, 29, 1, 1},
		{"temporal conv", 13, 3, 1, 11},
		{"pool default stride", 11, 2, 2, 5},
		{"kernel equals input", 7, 7, 1, 1},
		{"kernel exceeds input", 3, 5, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvOut(tt.in, tt.kernel, tt.stride))
		})
	}
}
