package layer

import (
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// PoolConfig holds the resolved configuration of a max pooling layer.
type PoolConfig struct {
	In Shape

	Sx     int
	Sy     int
	Stride int
	Pad    int
}

// Pool implements 2D max pooling independently on every depth slice.
//
// For each output cell the input coordinate that produced the maximum is
// recorded in switchX/switchY during Forward and consumed by the following
// Backward, so the gradient reaches exactly that cell.
type Pool struct {
	in     Shape
	out    Shape
	sx     int
	sy     int
	stride int
	pad    int

	switchX []int
	switchY []int

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewPool creates a max pooling layer.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.In.Len() <= 0 {
		return nil, fmt.Errorf("%w: pool input shape %v", ErrInvalidConfig, cfg.In)
	}
	if cfg.Sx <= 0 || cfg.Sy <= 0 || cfg.Stride <= 0 || cfg.Pad < 0 {
		return nil, fmt.Errorf("%w: pool sx=%d sy=%d stride=%d pad=%d",
			ErrInvalidConfig, cfg.Sx, cfg.Sy, cfg.Stride, cfg.Pad)
	}
	if cfg.In.Sx+2*cfg.Pad < cfg.Sx || cfg.In.Sy+2*cfg.Pad < cfg.Sy {
		return nil, fmt.Errorf("%w: pool window %dx%d larger than padded input %v",
			ErrInvalidConfig, cfg.Sx, cfg.Sy, cfg.In)
	}

	out := Shape{
		Sx:    OutputSize(cfg.In.Sx, cfg.Sx, cfg.Stride, cfg.Pad),
		Sy:    OutputSize(cfg.In.Sy, cfg.Sy, cfg.Stride, cfg.Pad),
		Depth: cfg.In.Depth,
	}
	return &Pool{
		in:      cfg.In,
		out:     out,
		sx:      cfg.Sx,
		sy:      cfg.Sy,
		stride:  cfg.Stride,
		pad:     cfg.Pad,
		switchX: make([]int, out.Len()),
		switchY: make([]int, out.Len()),
	}, nil
}

// Type returns TypePool.
func (p *Pool) Type() Type { return TypePool }

// OutShape returns the output shape.
func (p *Pool) OutShape() Shape { return p.out }

// Switches returns the winning input coordinates recorded by the last
// Forward, indexed like the output tensor. A coordinate of -1 marks a
// window that lay entirely in the padding; its output is 0 and it receives
// no gradient.
func (p *Pool) Switches() (xs, ys []int) { return p.switchX, p.switchY }

// Forward performs a forward pass through the max pooling layer.
func (p *Pool) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	mustShape("Pool", in, p.in)
	p.inAct = in
	out := tensor.New(p.out.Sx, p.out.Sy, p.out.Depth, 0)

	for d := 0; d < p.out.Depth; d++ {
		for ay := 0; ay < p.out.Sy; ay++ {
			y := ay*p.stride - p.pad
			for ax := 0; ax < p.out.Sx; ax++ {
				x := ax*p.stride - p.pad

				a := math.Inf(-1)
				winX, winY := -1, -1
				for fy := 0; fy < p.sy; fy++ {
					oy := y + fy
					if oy < 0 || oy >= in.Sy {
						continue
					}
					for fx := 0; fx < p.sx; fx++ {
						ox := x + fx
						if ox < 0 || ox >= in.Sx {
							continue
						}
						// Strict comparison keeps the first maximum on ties.
						if v := in.Get(ox, oy, d); v > a {
							a = v
							winX, winY = ox, oy
						}
					}
				}

				if winX < 0 {
					a = 0 // window saw only zero padding
				}

				i := out.Index(ax, ay, d)
				p.switchX[i] = winX
				p.switchY[i] = winY
				out.W[i] = a
			}
		}
	}

	p.outAct = out
	return out
}

// Backward adds each output cell's gradient to the input cell that won it.
func (p *Pool) Backward() {
	in := p.inAct
	in.ZeroGrad()

	for d := 0; d < p.out.Depth; d++ {
		for ay := 0; ay < p.out.Sy; ay++ {
			for ax := 0; ax < p.out.Sx; ax++ {
				i := p.outAct.Index(ax, ay, d)
				if p.switchX[i] < 0 {
					continue
				}
				in.AddGrad(p.switchX[i], p.switchY[i], d, p.outAct.Dw[i])
			}
		}
	}
}

// ParamsAndGrads returns nil: pooling has no parameters.
func (p *Pool) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (p *Pool) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypePool,
		InSx:      p.in.Sx,
		InSy:      p.in.Sy,
		InDepth:   p.in.Depth,
		OutSx:     p.out.Sx,
		OutSy:     p.out.Sy,
		OutDepth:  p.out.Depth,
		Sx:        p.sx,
		Sy:        p.sy,
		Stride:    p.stride,
		Pad:       p.pad,
	}
}
