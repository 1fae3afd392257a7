// Package net assembles layers into a trainable feed-forward network.
package net

import (
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Network is an ordered pipeline of layers that starts with an input layer
// and ends with a loss layer.
type Network struct {
	layers []layer.Layer
	hidden []layer.Hidden // every layer but the last
	loss   layer.Loss

	// out is the output of the most recent Forward.
	out *tensor.Tensor

	warnedClassTarget bool
	logger            *slog.Logger
}

// New desugars defs and instantiates the layers in order, feeding each
// layer's output shape to the next one. g draws the initial weights and
// dropout masks; a nil g is seeded from the clock. A nil logger uses
// slog.Default().
func New(defs []Def, g *tensor.Gaussian, logger *slog.Logger) (*Network, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if g == nil {
		g = tensor.NewGaussian(time.Now().UnixNano())
	}

	expanded, err := Desugar(defs)
	if err != nil {
		return nil, err
	}

	layers := make([]layer.Layer, 0, len(expanded))
	var in layer.Shape
	for i, d := range expanded {
		l, err := d.build(in, g)
		if err != nil {
			return nil, fmt.Errorf("failed to build layer %d (%s): %w", i, d.Type, err)
		}
		logger.Debug("layer built", "index", i, "type", d.Type, "in", in, "out", l.OutShape())
		layers = append(layers, l)
		in = l.OutShape()
	}
	return assemble(layers, logger)
}

// assemble checks the structural invariants of a layer list and splits it
// into the hidden part and the loss layer.
func assemble(layers []layer.Layer, logger *slog.Logger) (*Network, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewLayers, len(layers))
	}
	if layers[0].Type() != layer.TypeInput {
		return nil, fmt.Errorf("%w: got %q", ErrFirstNotInput, layers[0].Type())
	}

	last := len(layers) - 1
	hidden := make([]layer.Hidden, last)
	for i, l := range layers[:last] {
		if i > 0 && l.Type() == layer.TypeInput {
			return nil, fmt.Errorf("%w: another input layer at position %d", ErrFirstNotInput, i)
		}
		h, ok := l.(layer.Hidden)
		if !ok {
			return nil, fmt.Errorf("%w: %s at position %d of %d", ErrLossNotLast, l.Type(), i, len(layers))
		}
		hidden[i] = h
	}
	lossLayer, ok := layers[last].(layer.Loss)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNoLossLayer, layers[last].Type())
	}

	return &Network{
		layers: layers,
		hidden: hidden,
		loss:   lossLayer,
		logger: logger,
	}, nil
}

// Forward threads in through every layer and returns the final output.
// training is passed to every layer; it only changes the behavior of
// dropout.
func (n *Network) Forward(in *tensor.Tensor, training bool) *tensor.Tensor {
	act := in
	for _, l := range n.layers {
		act = l.Forward(act, training)
	}
	n.out = act
	return act
}

// Predict is Forward in prediction mode.
func (n *Network) Predict(in *tensor.Tensor) *tensor.Tensor {
	return n.Forward(in, false)
}

// Backward seeds the gradient from the loss layer with target y, then runs
// every other layer's backward pass in reverse order. It returns the loss of
// the last Forward.
func (n *Network) Backward(y layer.Target) (float64, error) {
	if n.out == nil {
		return 0, ErrNoForward
	}
	if err := n.checkTarget(y); err != nil {
		return 0, err
	}

	cost := n.loss.BackwardLoss(y)
	for i := len(n.hidden) - 1; i >= 0; i-- {
		n.hidden[i].Backward()
	}
	return cost, nil
}

// CostLoss runs x forward in prediction mode and returns the loss against y.
// Parameter gradients are left untouched.
func (n *Network) CostLoss(x *tensor.Tensor, y layer.Target) (float64, error) {
	if err := n.checkTarget(y); err != nil {
		return 0, err
	}
	n.Forward(x, false)
	return n.loss.BackwardLoss(y), nil
}

func (n *Network) checkTarget(y layer.Target) error {
	size := n.loss.OutShape().Len()
	switch t := n.loss.Type(); t {
	case layer.TypeSoftmax, layer.TypeSVM:
		c, ok := y.Class()
		if !ok || c < 0 || c >= size {
			return fmt.Errorf("%w: %s needs a class in [0,%d), got %s", ErrInvalidTarget, t, size, y)
		}

	case layer.TypeRegression:
		if v, ok := y.Vector(); ok {
			if len(v) != size {
				return fmt.Errorf("%w: %d values for %d outputs", ErrInvalidTarget, len(v), size)
			}
			return nil
		}
		if d, _, ok := y.Dim(); ok {
			if d < 0 || d >= size {
				return fmt.Errorf("%w: dimension %d outside [0,%d)", ErrInvalidTarget, d, size)
			}
			return nil
		}
		if !n.warnedClassTarget {
			n.warnedClassTarget = true
			n.logger.Warn("regression layer given a class target, using it as the value of output 0", "target", y.String())
		}
	}
	return nil
}

// ParamsAndGrads concatenates the parameter groups of every layer in layer
// order. Group names are prefixed with the layer index ("3.filter.0").
func (n *Network) ParamsAndGrads() []layer.ParamGroup {
	var groups []layer.ParamGroup
	for i, l := range n.layers {
		for _, g := range l.ParamsAndGrads() {
			g.Name = fmt.Sprintf("%d.%s", i, g.Name)
			groups = append(groups, g)
		}
	}
	return groups
}

// Prediction returns the index of the most probable class of the last
// Forward. The first index wins ties.
func (n *Network) Prediction() (int, error) {
	if n.loss.Type() != layer.TypeSoftmax {
		return 0, fmt.Errorf("%w: last layer is %s", ErrNotSoftmax, n.loss.Type())
	}
	if n.out == nil {
		return 0, ErrNoForward
	}
	return floats.MaxIdx(n.out.W), nil
}

// Layers returns the instantiated layers in order.
func (n *Network) Layers() []layer.Layer { return n.layers }

// Len returns the number of layers.
func (n *Network) Len() int { return len(n.layers) }

// InShape returns the shape the input layer accepts.
func (n *Network) InShape() layer.Shape { return n.layers[0].OutShape() }

// OutShape returns the shape of the network output.
func (n *Network) OutShape() layer.Shape { return n.loss.OutShape() }
