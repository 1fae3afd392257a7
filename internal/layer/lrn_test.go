package layer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

func TestLRNForward(t *testing.T) {
	l, err := NewLRN(LRNConfig{In: Shape{1, 1, 3}, K: 1, N: 3, Alpha: 3, Beta: 1})
	require.NoError(t, err)

	out := l.Forward(tensor.FromSlice([]float64{1, 2, 3}), false)
	// alpha/n = 1, so den_i = 1 + sum of squares in the window.
	assert.InDeltaSlice(t, []float64{
		1 / (1 + 1 + 4.0),
		2 / (1 + 1 + 4 + 9.0),
		3 / (1 + 4 + 9.0),
	}, out.W, 1e-12)
}

func TestLRNGradients(t *testing.T) {
	shape := Shape{2, 3, 5}
	l, err := NewLRN(LRNConfig{In: shape, K: 2, N: 3, Alpha: 0.5, Beta: 0.75})
	require.NoError(t, err)
	checkGradients(t, l, randomTensor(shape, tensor.NewGaussian(9)))
}

func TestLRNIdentityWithoutAlpha(t *testing.T) {
	l, err := NewLRN(LRNConfig{In: Shape{1, 1, 2}, K: 1, N: 1, Alpha: 0, Beta: 0.75})
	require.NoError(t, err)
	out := l.Forward(tensor.FromSlice([]float64{-3, 5}), false)
	assert.Equal(t, []float64{-3, 5}, out.W)
	assert.False(t, math.IsNaN(out.W[0]))
}

func TestLRNRejectsEvenWindow(t *testing.T) {
	_, err := NewLRN(LRNConfig{In: Shape{1, 1, 4}, K: 1, N: 2, Alpha: 1, Beta: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
