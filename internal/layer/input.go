package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Input is the first layer of every network. It declares the input shape
// and passes its input through unchanged.
type Input struct {
	out Shape

	outAct *tensor.Tensor
}

// NewInput creates an input layer accepting tensors of the given shape.
func NewInput(out Shape) (*Input, error) {
	if out.Len() <= 0 {
		return nil, fmt.Errorf("%w: input shape %v", ErrInvalidConfig, out)
	}
	return &Input{out: out}, nil
}

// Type returns TypeInput.
func (l *Input) Type() Type { return TypeInput }

// OutShape returns the declared input shape.
func (l *Input) OutShape() Shape { return l.out }

// Forward returns in.
func (l *Input) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	l.outAct = in
	return in
}

// Backward does nothing; the gradient already sits in the input tensor.
func (l *Input) Backward() {}

// ParamsAndGrads returns nil.
func (l *Input) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *Input) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeInput,
		OutSx:     l.out.Sx,
		OutSy:     l.out.Sy,
		OutDepth:  l.out.Depth,
	}
}
