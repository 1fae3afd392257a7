package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Maxout keeps the maximum of each group of GroupSize consecutive depth
// slices, shrinking depth by that factor.
type Maxout struct {
	in        Shape
	out       Shape
	groupSize int

	// switches holds, per output cell, the input depth index that won.
	switches []int

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewMaxout creates a maxout layer.
func NewMaxout(in Shape, groupSize int) (*Maxout, error) {
	if groupSize <= 0 || in.Depth < groupSize || in.Len() <= 0 {
		return nil, fmt.Errorf("%w: maxout group size %d for input %v", ErrInvalidConfig, groupSize, in)
	}
	out := Shape{Sx: in.Sx, Sy: in.Sy, Depth: in.Depth / groupSize}
	return &Maxout{
		in:        in,
		out:       out,
		groupSize: groupSize,
		switches:  make([]int, out.Len()),
	}, nil
}

// Type returns TypeMaxout.
func (l *Maxout) Type() Type { return TypeMaxout }

// OutShape returns the reduced shape.
func (l *Maxout) OutShape() Shape { return l.out }

// Forward performs the group maximum.
func (l *Maxout) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	mustShape("Maxout", in, l.in)
	l.inAct = in
	out := tensor.New(l.out.Sx, l.out.Sy, l.out.Depth, 0)

	for y := 0; y < l.out.Sy; y++ {
		for x := 0; x < l.out.Sx; x++ {
			for i := 0; i < l.out.Depth; i++ {
				ix := i * l.groupSize
				a := in.Get(x, y, ix)
				win := ix
				for j := 1; j < l.groupSize; j++ {
					if a2 := in.Get(x, y, ix+j); a2 > a {
						a = a2
						win = ix + j
					}
				}
				k := out.Index(x, y, i)
				out.W[k] = a
				l.switches[k] = win
			}
		}
	}

	l.outAct = out
	return out
}

// Backward routes each output gradient to the winning input depth.
func (l *Maxout) Backward() {
	in := l.inAct
	in.ZeroGrad()
	for y := 0; y < l.out.Sy; y++ {
		for x := 0; x < l.out.Sx; x++ {
			for i := 0; i < l.out.Depth; i++ {
				k := l.outAct.Index(x, y, i)
				in.AddGrad(x, y, l.switches[k], l.outAct.Dw[k])
			}
		}
	}
}

// ParamsAndGrads returns nil.
func (l *Maxout) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *Maxout) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeMaxout,
		InSx:      l.in.Sx,
		InSy:      l.in.Sy,
		InDepth:   l.in.Depth,
		OutSx:     l.out.Sx,
		OutSy:     l.out.Sy,
		OutDepth:  l.out.Depth,
		GroupSize: l.groupSize,
	}
}
