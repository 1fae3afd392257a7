package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

func TestFullyConnForward(t *testing.T) {
	fc, err := NewFullyConn(FullyConnConfig{In: Shape{1, 1, 3}, NumNeurons: 2, BiasPref: 1}, tensor.NewGaussian(1))
	require.NoError(t, err)
	copy(fc.Filters()[0].W, []float64{1, 0, -1})
	copy(fc.Filters()[1].W, []float64{0.5, 0.5, 0.5})

	out := fc.Forward(tensor.FromSlice([]float64{2, 3, 4}), false)
	assert.Equal(t, Shape{1, 1, 2}, ShapeOf(out))
	assert.InDelta(t, 1+2-4, out.W[0], 1e-12)
	assert.InDelta(t, 1+4.5, out.W[1], 1e-12)
}

func TestFullyConnBackward(t *testing.T) {
	fc, err := NewFullyConn(FullyConnConfig{In: Shape{1, 1, 2}, NumNeurons: 2}, tensor.NewGaussian(1))
	require.NoError(t, err)
	copy(fc.Filters()[0].W, []float64{1, 2})
	copy(fc.Filters()[1].W, []float64{3, 4})

	in := tensor.FromSlice([]float64{5, 6})
	out := fc.Forward(in, true)
	out.Dw[0] = 1
	out.Dw[1] = -1
	fc.Backward()

	assert.Equal(t, []float64{1 - 3, 2 - 4}, in.Dw)
	assert.Equal(t, []float64{5, 6}, fc.Filters()[0].Dw)
	assert.Equal(t, []float64{-5, -6}, fc.Filters()[1].Dw)
	assert.Equal(t, []float64{1, -1}, fc.Biases().Dw)
}

func TestFullyConnFlattensSpatialInput(t *testing.T) {
	in := Shape{3, 2, 2}
	fc, err := NewFullyConn(FullyConnConfig{In: in, NumNeurons: 4}, tensor.NewGaussian(1))
	require.NoError(t, err)
	assert.Equal(t, 12, fc.NumInputs())
	assert.Equal(t, Shape{1, 1, 4}, fc.OutShape())

	checkGradients(t, fc, randomTensor(in, tensor.NewGaussian(5)))
}

func TestFullyConnGradients(t *testing.T) {
	fc, err := NewFullyConn(FullyConnConfig{In: Shape{1, 1, 7}, NumNeurons: 5, BiasPref: 0.1}, tensor.NewGaussian(1))
	require.NoError(t, err)
	checkGradients(t, fc, randomTensor(Shape{1, 1, 7}, tensor.NewGaussian(6)))
}

func TestFullyConnRejectsWrongInput(t *testing.T) {
	fc, err := NewFullyConn(FullyConnConfig{In: Shape{1, 1, 3}, NumNeurons: 1}, tensor.NewGaussian(1))
	require.NoError(t, err)
	assert.Panics(t, func() { fc.Forward(tensor.FromSlice([]float64{1, 2}), false) })

	_, err = NewFullyConn(FullyConnConfig{In: Shape{1, 1, 3}, NumNeurons: 0}, tensor.NewGaussian(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
