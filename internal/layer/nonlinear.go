package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/activations"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Nonlinearity applies an elementwise activation. It backs the relu,
// sigmoid and tanh layer kinds.
type Nonlinearity struct {
	typ   Type
	act   activations.Activation
	shape Shape

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewNonlinearity creates an elementwise layer of kind t (relu, sigmoid or
// tanh) over tensors of shape in.
func NewNonlinearity(t Type, in Shape) (*Nonlinearity, error) {
	act, ok := activations.ByName(string(t))
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an elementwise activation", ErrInvalidConfig, t)
	}
	if in.Len() <= 0 {
		return nil, fmt.Errorf("%w: %s input shape %v", ErrInvalidConfig, t, in)
	}
	return &Nonlinearity{typ: t, act: act, shape: in}, nil
}

// Type returns the activation kind.
func (l *Nonlinearity) Type() Type { return l.typ }

// OutShape returns the input shape.
func (l *Nonlinearity) OutShape() Shape { return l.shape }

// Forward applies the activation to every value.
func (l *Nonlinearity) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	l.inAct = in
	out := in.CloneAndZero()
	for i, v := range in.W {
		out.W[i] = l.act.Activate(v)
	}
	l.outAct = out
	return out
}

// Backward multiplies the chain gradient by the activation derivative.
func (l *Nonlinearity) Backward() {
	in, out := l.inAct, l.outAct
	for i := range in.Dw {
		in.Dw[i] = l.act.Derivative(out.W[i]) * out.Dw[i]
	}
}

// ParamsAndGrads returns nil.
func (l *Nonlinearity) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *Nonlinearity) Descriptor() Descriptor {
	return Descriptor{
		LayerType: l.typ,
		OutSx:     l.shape.Sx,
		OutSy:     l.shape.Sy,
		OutDepth:  l.shape.Depth,
	}
}
