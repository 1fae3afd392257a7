package activations

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReLU(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		input    float64
		expected float64
		deriv    float64
	}{
		{-1.0, 0.0, 0.0},
		{0.0, 0.0, 0.0},
		{1.0, 1.0, 1.0},
		{2.5, 2.5, 1.0},
		{-0.1, 0.0, 0.0},
	}

	for _, tt := range tests {
		y := relu.Activate(tt.input)
		assert.InDelta(t, tt.expected, y, 1e-12, "ReLU(%v)", tt.input)
		assert.InDelta(t, tt.deriv, relu.Derivative(y), 1e-12, "ReLU'(%v)", tt.input)
	}
}

// TestDerivativeFromOutput compares each derivative against a central
// difference of Activate.
func TestDerivativeFromOutput(t *testing.T) {
	const h = 1e-6
	acts := map[string]Activation{
		"sigmoid": Sigmoid{},
		"tanh":    Tanh{},
	}
	for name, act := range acts {
		for _, x := range []float64{-3, -0.5, 0, 0.7, 2} {
			want := (act.Activate(x+h) - act.Activate(x-h)) / (2 * h)
			got := act.Derivative(act.Activate(x))
			assert.InDelta(t, want, got, 1e-6, "%s'(%v)", name, x)
		}
	}
}

func TestSigmoidRange(t *testing.T) {
	s := Sigmoid{}
	assert.InDelta(t, 0.5, s.Activate(0), 1e-12)
	assert.Less(t, s.Activate(-50), 1e-12)
	assert.False(t, math.IsNaN(s.Activate(1000)))
}

func TestByName(t *testing.T) {
	for _, name := range []string{"relu", "sigmoid", "tanh"} {
		act, ok := ByName(name)
		assert.True(t, ok, name)
		assert.NotNil(t, act)
	}
	_, ok := ByName("softplus")
	assert.False(t, ok)
}
