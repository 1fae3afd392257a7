// Package activations provides the scalar nonlinearities applied by the
// elementwise layers.
package activations

import "math"

// Activation is an elementwise nonlinearity.
//
// Derivative is expressed in terms of the activated output y = Activate(x),
// which is what the layers keep around for the backward pass.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) given y = f(x)
	Derivative(y float64) float64
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if y > 0, else 0
func (ReLU) Derivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

// Sigmoid activation function.
type Sigmoid struct{}

// Activate computes 1 / (1 + e^-x)
func (Sigmoid) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Derivative computes y * (1 - y)
func (Sigmoid) Derivative(y float64) float64 {
	return y * (1 - y)
}

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - y^2
func (Tanh) Derivative(y float64) float64 {
	return 1 - y*y
}

// ByName returns the activation registered under name.
func ByName(name string) (Activation, bool) {
	switch name {
	case "relu":
		return ReLU{}, true
	case "sigmoid":
		return Sigmoid{}, true
	case "tanh":
		return Tanh{}, true
	}
	return nil, false
}
