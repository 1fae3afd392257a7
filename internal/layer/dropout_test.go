package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

func TestDropoutInferenceIsIdentity(t *testing.T) {
	d, err := NewDropout(Shape{1, 1, 4}, 0.5, tensor.NewGaussian(1))
	require.NoError(t, err)

	in := tensor.FromSlice([]float64{1, 2, 3, 4})
	out := d.Forward(in, false)
	assert.Equal(t, in.W, out.W)

	out.Dw[2] = 7
	d.Backward()
	assert.Equal(t, []float64{0, 0, 7, 0}, in.Dw)
}

func TestDropoutTrainingScalesKeptUnits(t *testing.T) {
	const p = 0.25
	d, err := NewDropout(Shape{10, 10, 10}, p, tensor.NewGaussian(2))
	require.NoError(t, err)

	in := tensor.New(10, 10, 10, 1)
	out := d.Forward(in, true)

	dropped := 0
	for _, v := range out.W {
		if v == 0 {
			dropped++
			continue
		}
		assert.InDelta(t, 1/(1-p), v, 1e-12)
	}
	frac := float64(dropped) / float64(out.Len())
	assert.InDelta(t, p, frac, 0.05)
}

func TestDropoutBackwardUsesMask(t *testing.T) {
	d, err := NewDropout(Shape{1, 1, 50}, 0.5, tensor.NewGaussian(3))
	require.NoError(t, err)

	in := tensor.New(1, 1, 50, 1)
	out := d.Forward(in, true)
	for i := range out.Dw {
		out.Dw[i] = 1
	}
	d.Backward()

	for i := range in.Dw {
		if out.W[i] == 0 {
			assert.Zero(t, in.Dw[i])
		} else {
			assert.Equal(t, 2.0, in.Dw[i])
		}
	}
}

func TestDropoutDeterministicWithSeed(t *testing.T) {
	run := func() []float64 {
		d, err := NewDropout(Shape{1, 1, 20}, 0.5, tensor.NewGaussian(42))
		require.NoError(t, err)
		return d.Forward(tensor.New(1, 1, 20, 1), true).W
	}
	assert.Equal(t, run(), run())
}

func TestDropoutInvalidProb(t *testing.T) {
	for _, p := range []float64{-0.1, 1, 1.5} {
		_, err := NewDropout(Shape{1, 1, 1}, p, tensor.NewGaussian(1))
		assert.ErrorIs(t, err, ErrInvalidConfig, "p=%g", p)
	}
}
