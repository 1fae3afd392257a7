// Package loss provides the loss kernels evaluated by the terminal layers of
// a network.
//
// Every kernel writes dLoss/dInput into a caller-owned grad slice and returns
// the scalar loss, so the loss layers can fill their input tensor's gradient
// buffer without allocating.
package loss

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax writes the numerically stabilized softmax of x into probs.
func Softmax(x, probs []float64) {
	if len(x) != len(probs) {
		panic("Softmax: input and output must have same length")
	}
	amax := floats.Max(x)
	for i, v := range x {
		probs[i] = math.Exp(v - amax)
	}
	floats.Scale(1/floats.Sum(probs), probs)
}

// SoftmaxCrossEntropy computes -log(probs[y]) for class probabilities
// produced by Softmax and sets grad[i] = probs[i] - [i == y].
func SoftmaxCrossEntropy(probs []float64, y int, grad []float64) float64 {
	n := len(probs)
	if n != len(grad) {
		panic("SoftmaxCrossEntropy: slices must have same length")
	}
	if y < 0 || y >= n {
		panic("SoftmaxCrossEntropy: class index out of range")
	}
	for i := 0; i < n; i++ {
		indicator := 0.0
		if i == y {
			indicator = 1
		}
		grad[i] = -(indicator - probs[i])
	}
	return -math.Log(probs[y])
}

// MulticlassHinge computes the one-vs-all hinge loss
// sum_{i != y} max(0, scores[i] - scores[y] + margin) and accumulates its
// subgradient into grad, which is cleared first.
func MulticlassHinge(scores []float64, y int, margin float64, grad []float64) float64 {
	n := len(scores)
	if n != len(grad) {
		panic("MulticlassHinge: slices must have same length")
	}
	if y < 0 || y >= n {
		panic("MulticlassHinge: class index out of range")
	}
	for i := range grad {
		grad[i] = 0
	}

	yscore := scores[y]
	var sum float64
	for i := 0; i < n; i++ {
		if i == y {
			continue
		}
		diff := -yscore + scores[i] + margin
		if diff > 0 {
			grad[i] += 1
			grad[y] -= 1
			sum += diff
		}
	}
	return sum
}

// HalfSquared computes 0.5 * sum((yPred - yTrue)^2) and sets
// grad = yPred - yTrue.
func HalfSquared(yPred, yTrue, grad []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("HalfSquared: slices must have same length")
	}
	var sum float64
	for i := 0; i < n; i++ {
		dy := yPred[i] - yTrue[i]
		grad[i] = dy
		sum += 0.5 * dy * dy
	}
	return sum
}
