package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Dropout implements inverted dropout regularization.
// During training, each value is zeroed with probability p and the kept
// values are scaled by 1/(1-p). During inference, values pass through
// unchanged.
type Dropout struct {
	p     float64
	shape Shape

	// mask holds the factor applied to each unit by the last Forward.
	mask []float64

	rng *tensor.Gaussian

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewDropout creates a dropout layer drawing its masks from rng.
func NewDropout(in Shape, p float64, rng *tensor.Gaussian) (*Dropout, error) {
	if p < 0 || p >= 1 {
		return nil, fmt.Errorf("%w: dropout probability %g outside [0,1)", ErrInvalidConfig, p)
	}
	if in.Len() <= 0 {
		return nil, fmt.Errorf("%w: dropout input shape %v", ErrInvalidConfig, in)
	}
	return &Dropout{
		p:     p,
		shape: in,
		mask:  make([]float64, in.Len()),
		rng:   rng,
	}, nil
}

// Type returns TypeDropout.
func (d *Dropout) Type() Type { return TypeDropout }

// OutShape returns the input shape.
func (d *Dropout) OutShape() Shape { return d.shape }

// Prob returns the drop probability.
func (d *Dropout) Prob() float64 { return d.p }

// Forward performs a forward pass through the dropout layer.
func (d *Dropout) Forward(in *tensor.Tensor, training bool) *tensor.Tensor {
	d.inAct = in
	out := in.Clone()

	if !training {
		for i := range d.mask {
			d.mask[i] = 1
		}
		d.outAct = out
		return out
	}

	scale := 1 / (1 - d.p)
	for i := range out.W {
		if d.rng.Float64() < d.p {
			d.mask[i] = 0
			out.W[i] = 0
		} else {
			d.mask[i] = scale
			out.W[i] *= scale
		}
	}
	d.outAct = out
	return out
}

// Backward passes the gradient through the units kept by the last Forward.
func (d *Dropout) Backward() {
	in, out := d.inAct, d.outAct
	for i := range in.Dw {
		in.Dw[i] = d.mask[i] * out.Dw[i]
	}
}

// ParamsAndGrads returns nil.
func (d *Dropout) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (d *Dropout) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeDropout,
		OutSx:     d.shape.Sx,
		OutSy:     d.shape.Sy,
		OutDepth:  d.shape.Depth,
		DropProb:  d.p,
	}
}
