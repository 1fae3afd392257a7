package layer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// gridTensor builds an sx x sy x 1 tensor from row-major values.
func gridTensor(sx, sy int, values ...float64) *tensor.Tensor {
	t := tensor.New(sx, sy, 1, 0)
	copy(t.W, values)
	return t
}

func randomTensor(s Shape, g *tensor.Gaussian) *tensor.Tensor {
	t := tensor.New(s.Sx, s.Sy, s.Depth, 0)
	for i := range t.W {
		t.W[i] = g.Sample(0, 1)
	}
	return t
}

func assertGradClose(t *testing.T, want, got []float64, what string) {
	t.Helper()
	if !assert.Len(t, got, len(want), what) {
		return
	}
	for i := range want {
		tol := 1e-5 + 1e-4*math.Abs(want[i])
		assert.InDelta(t, want[i], got[i], tol, "%s[%d]", what, i)
	}
}

// checkGradients compares the analytic gradients of l against central
// finite differences of the objective sum_i r_i * out_i, whose gradient
// with respect to the output is r.
func checkGradients(t *testing.T, l Hidden, in *tensor.Tensor) {
	t.Helper()
	g := tensor.NewGaussian(99)

	out := l.Forward(in, false)
	r := make([]float64, out.Len())
	for i := range r {
		r[i] = g.Sample(0, 1)
	}
	objective := func() float64 {
		return floats.Dot(r, l.Forward(in, false).W)
	}

	for _, pg := range l.ParamsAndGrads() {
		for i := range pg.Grads {
			pg.Grads[i] = 0
		}
	}
	out = l.Forward(in, false)
	copy(out.Dw, r)
	l.Backward()
	inGrad := append([]float64(nil), in.Dw...)

	numeric := func(buf []float64) []float64 {
		orig := append([]float64(nil), buf...)
		grad := fd.Gradient(nil, func(x []float64) float64 {
			copy(buf, x)
			return objective()
		}, orig, &fd.Settings{Formula: fd.Central, Step: 1e-6})
		copy(buf, orig)
		return grad
	}

	assertGradClose(t, numeric(in.W), inGrad, "input")
	for _, pg := range l.ParamsAndGrads() {
		assertGradClose(t, numeric(pg.Params), pg.Grads, pg.Name)
	}
}
