package layer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

func newTestConv(t *testing.T, cfg ConvConfig) *Conv {
	t.Helper()
	c, err := NewConv(cfg, tensor.NewGaussian(1))
	require.NoError(t, err)
	return c
}

func TestConvOutputShape(t *testing.T) {
	tests := []struct {
		name   string
		in     Shape
		f      int
		stride int
		pad    int
		out    Shape
	}{
		{"valid", Shape{5, 5, 3}, 3, 1, 0, Shape{3, 3, 4}},
		{"same padding", Shape{8, 8, 1}, 3, 1, 1, Shape{8, 8, 4}},
		{"strided", Shape{5, 5, 1}, 3, 2, 1, Shape{3, 3, 4}},
		// (7-3)/3+1 = 2: the last column and row are never visited.
		{"truncated", Shape{7, 7, 2}, 3, 3, 0, Shape{2, 2, 4}},
		{"non-square", Shape{6, 4, 1}, 2, 2, 0, Shape{3, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConv(t, ConvConfig{In: tt.in, Sx: tt.f, Sy: tt.f, Filters: 4, Stride: tt.stride, Pad: tt.pad})
			assert.Equal(t, tt.out, c.OutShape())

			out := c.Forward(randomTensor(tt.in, tensor.NewGaussian(2)), false)
			assert.Equal(t, tt.out, ShapeOf(out))
		})
	}
}

func TestConvForwardValues(t *testing.T) {
	c := newTestConv(t, ConvConfig{In: Shape{3, 3, 1}, Sx: 2, Sy: 2, Filters: 1, Stride: 1, BiasPref: 0.5})
	c.Filters()[0].SetConst(1)

	// 1 2 3
	// 4 5 6
	// 7 8 9
	out := c.Forward(gridTensor(3, 3, 1, 2, 3, 4, 5, 6, 7, 8, 9), false)
	assert.Equal(t, []float64{12.5, 16.5, 24.5, 28.5}, out.W)
}

func TestConvForwardPaddingIsZero(t *testing.T) {
	c := newTestConv(t, ConvConfig{In: Shape{3, 3, 1}, Sx: 2, Sy: 2, Filters: 1, Stride: 1, Pad: 1})
	c.Filters()[0].SetConst(1)

	out := c.Forward(gridTensor(3, 3, 1, 2, 3, 4, 5, 6, 7, 8, 9), false)
	require.Equal(t, Shape{4, 4, 1}, ShapeOf(out))
	assert.Equal(t, 1.0, out.Get(0, 0, 0))
	assert.Equal(t, 3.0, out.Get(3, 0, 0))
	assert.Equal(t, 12.0, out.Get(1, 1, 0))
	assert.Equal(t, 9.0, out.Get(3, 3, 0))
}

func TestConvGradients(t *testing.T) {
	tests := []struct {
		name string
		cfg  ConvConfig
	}{
		{"basic", ConvConfig{In: Shape{5, 5, 2}, Sx: 3, Sy: 3, Filters: 3, Stride: 1}},
		{"padded strided", ConvConfig{In: Shape{6, 5, 3}, Sx: 3, Sy: 2, Filters: 2, Stride: 2, Pad: 1}},
		{"overlapping truncated", ConvConfig{In: Shape{7, 7, 1}, Sx: 4, Sy: 4, Filters: 2, Stride: 3, Pad: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConv(t, tt.cfg)
			checkGradients(t, c, randomTensor(tt.cfg.In, tensor.NewGaussian(3)))
		})
	}
}

func TestConvBackwardAccumulatesParamGrads(t *testing.T) {
	c := newTestConv(t, ConvConfig{In: Shape{3, 3, 1}, Sx: 2, Sy: 2, Filters: 1, Stride: 1})
	in := randomTensor(Shape{3, 3, 1}, tensor.NewGaussian(4))

	out := c.Forward(in, true)
	out.Dw[0] = 1
	c.Backward()
	once := append([]float64(nil), c.Filters()[0].Dw...)
	inOnce := append([]float64(nil), in.Dw...)

	out = c.Forward(in, true)
	out.Dw[0] = 1
	c.Backward()

	for i := range once {
		assert.InDelta(t, 2*once[i], c.Filters()[0].Dw[i], 1e-12)
	}
	assert.Equal(t, 2.0, c.Biases().Dw[0])
	// The input gradient is rewritten, not accumulated.
	assert.Equal(t, inOnce, in.Dw)
}

func TestConvParamsAndGradsOrder(t *testing.T) {
	c := newTestConv(t, ConvConfig{In: Shape{4, 4, 2}, Sx: 3, Sy: 3, Filters: 3, Stride: 1, L1DecayMul: 0.5, L2DecayMul: 2})
	groups := c.ParamsAndGrads()
	require.Len(t, groups, 4)

	for i := 0; i < 3; i++ {
		assert.Equal(t, fmt.Sprintf("filter.%d", i), groups[i].Name)
		assert.Len(t, groups[i].Params, 3*3*2)
		assert.Equal(t, 0.5, groups[i].L1DecayMul)
		assert.Equal(t, 2.0, groups[i].L2DecayMul)
		assert.Same(t, &c.Filters()[i].W[0], &groups[i].Params[0])
	}
	assert.Equal(t, "bias", groups[3].Name)
	assert.Len(t, groups[3].Params, 3)
	assert.Zero(t, groups[3].L1DecayMul)
	assert.Zero(t, groups[3].L2DecayMul)
}

func TestConvInvalidConfig(t *testing.T) {
	bad := []ConvConfig{
		{In: Shape{5, 5, 1}, Sx: 0, Sy: 3, Filters: 1, Stride: 1},
		{In: Shape{5, 5, 1}, Sx: 3, Sy: 3, Filters: 0, Stride: 1},
		{In: Shape{5, 5, 1}, Sx: 3, Sy: 3, Filters: 1, Stride: 0},
		{In: Shape{2, 2, 1}, Sx: 5, Sy: 5, Filters: 1, Stride: 1},
		{In: Shape{0, 5, 1}, Sx: 1, Sy: 1, Filters: 1, Stride: 1},
	}
	for _, cfg := range bad {
		_, err := NewConv(cfg, tensor.NewGaussian(1))
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}
}

func TestConvBiasPref(t *testing.T) {
	c := newTestConv(t, ConvConfig{In: Shape{3, 3, 1}, Sx: 1, Sy: 1, Filters: 2, Stride: 1, BiasPref: 0.1})
	assert.Equal(t, []float64{0.1, 0.1}, c.Biases().W)
}
