package layer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// ConvConfig holds the resolved configuration of a convolutional layer.
type ConvConfig struct {
	In Shape

	Sx      int // filter width
	Sy      int // filter height
	Filters int // output depth
	Stride  int
	Pad     int

	BiasPref   float64
	L1DecayMul float64
	L2DecayMul float64
}

// Conv implements a 2D convolutional layer over (x, y, depth) tensors.
//
// Each output depth slice d is produced by its own filter of shape
// (Sx, Sy, in.Depth). Padding is implicit: receptive-field cells that fall
// outside the input contribute zero and are never materialized.
type Conv struct {
	in     Shape
	out    Shape
	sx     int
	sy     int
	stride int
	pad    int

	l1DecayMul float64
	l2DecayMul float64

	filters []*tensor.Tensor
	biases  *tensor.Tensor

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewConv creates a convolutional layer with variance-scaled random filters
// drawn from g and biases set to cfg.BiasPref.
func NewConv(cfg ConvConfig, g *tensor.Gaussian) (*Conv, error) {
	if cfg.In.Len() <= 0 {
		return nil, fmt.Errorf("%w: conv input shape %v", ErrInvalidConfig, cfg.In)
	}
	if cfg.Sx <= 0 || cfg.Sy <= 0 || cfg.Filters <= 0 || cfg.Stride <= 0 || cfg.Pad < 0 {
		return nil, fmt.Errorf("%w: conv sx=%d sy=%d filters=%d stride=%d pad=%d",
			ErrInvalidConfig, cfg.Sx, cfg.Sy, cfg.Filters, cfg.Stride, cfg.Pad)
	}
	if cfg.In.Sx+2*cfg.Pad < cfg.Sx || cfg.In.Sy+2*cfg.Pad < cfg.Sy {
		return nil, fmt.Errorf("%w: conv filter %dx%d larger than padded input %v",
			ErrInvalidConfig, cfg.Sx, cfg.Sy, cfg.In)
	}

	c := &Conv{
		in:     cfg.In,
		sx:     cfg.Sx,
		sy:     cfg.Sy,
		stride: cfg.Stride,
		pad:    cfg.Pad,
		out: Shape{
			Sx:    OutputSize(cfg.In.Sx, cfg.Sx, cfg.Stride, cfg.Pad),
			Sy:    OutputSize(cfg.In.Sy, cfg.Sy, cfg.Stride, cfg.Pad),
			Depth: cfg.Filters,
		},
		l1DecayMul: cfg.L1DecayMul,
		l2DecayMul: cfg.L2DecayMul,
		filters:    make([]*tensor.Tensor, cfg.Filters),
		biases:     tensor.New(1, 1, cfg.Filters, cfg.BiasPref),
	}
	for i := range c.filters {
		c.filters[i] = tensor.NewRandom(cfg.Sx, cfg.Sy, cfg.In.Depth, g)
	}
	return c, nil
}

// Type returns TypeConv.
func (c *Conv) Type() Type { return TypeConv }

// OutShape returns the output shape.
func (c *Conv) OutShape() Shape { return c.out }

// InShape returns the configured input shape.
func (c *Conv) InShape() Shape { return c.in }

// Filters returns the filter tensors. They are owned by the layer.
func (c *Conv) Filters() []*tensor.Tensor { return c.filters }

// Biases returns the (1, 1, out depth) bias tensor.
func (c *Conv) Biases() *tensor.Tensor { return c.biases }

// Forward performs a forward pass through the convolutional layer.
func (c *Conv) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	mustShape("Conv", in, c.in)
	c.inAct = in
	out := tensor.New(c.out.Sx, c.out.Sy, c.out.Depth, 0)

	depth := in.Depth
	for d, f := range c.filters {
		for ay := 0; ay < c.out.Sy; ay++ {
			y := ay*c.stride - c.pad
			for ax := 0; ax < c.out.Sx; ax++ {
				x := ax*c.stride - c.pad

				a := c.biases.W[d]
				for fy := 0; fy < c.sy; fy++ {
					oy := y + fy
					if oy < 0 || oy >= in.Sy {
						continue
					}
					for fx := 0; fx < c.sx; fx++ {
						ox := x + fx
						if ox < 0 || ox >= in.Sx {
							continue
						}
						fi := f.Index(fx, fy, 0)
						vi := in.Index(ox, oy, 0)
						a += floats.Dot(f.W[fi:fi+depth], in.W[vi:vi+depth])
					}
				}
				out.Set(ax, ay, d, a)
			}
		}
	}

	c.outAct = out
	return out
}

// Backward routes the output gradient into the input gradient, the filter
// gradients and the bias gradients. Filter and bias gradients accumulate
// across calls until the trainer consumes them.
func (c *Conv) Backward() {
	in := c.inAct
	in.ZeroGrad()

	depth := in.Depth
	for d, f := range c.filters {
		for ay := 0; ay < c.out.Sy; ay++ {
			y := ay*c.stride - c.pad
			for ax := 0; ax < c.out.Sx; ax++ {
				x := ax*c.stride - c.pad

				chain := c.outAct.GetGrad(ax, ay, d)
				for fy := 0; fy < c.sy; fy++ {
					oy := y + fy
					if oy < 0 || oy >= in.Sy {
						continue
					}
					for fx := 0; fx < c.sx; fx++ {
						ox := x + fx
						if ox < 0 || ox >= in.Sx {
							continue
						}
						fi := f.Index(fx, fy, 0)
						vi := in.Index(ox, oy, 0)
						floats.AddScaled(f.Dw[fi:fi+depth], chain, in.W[vi:vi+depth])
						floats.AddScaled(in.Dw[vi:vi+depth], chain, f.W[fi:fi+depth])
					}
				}
				c.biases.Dw[d] += chain
			}
		}
	}
}

// ParamsAndGrads returns one group per filter followed by the bias group.
// Biases are never decayed.
func (c *Conv) ParamsAndGrads() []ParamGroup {
	return filterGroups(c.filters, c.biases, c.l1DecayMul, c.l2DecayMul)
}

// Descriptor exports the layer for persistence.
func (c *Conv) Descriptor() Descriptor {
	return Descriptor{
		LayerType:  TypeConv,
		InSx:       c.in.Sx,
		InSy:       c.in.Sy,
		InDepth:    c.in.Depth,
		OutSx:      c.out.Sx,
		OutSy:      c.out.Sy,
		OutDepth:   c.out.Depth,
		Sx:         c.sx,
		Sy:         c.sy,
		Stride:     c.stride,
		Pad:        c.pad,
		L1DecayMul: c.l1DecayMul,
		L2DecayMul: c.l2DecayMul,
		Filters:    c.filters,
		Biases:     c.biases,
	}
}

func filterGroups(filters []*tensor.Tensor, biases *tensor.Tensor, l1, l2 float64) []ParamGroup {
	groups := make([]ParamGroup, 0, len(filters)+1)
	for i, f := range filters {
		groups = append(groups, ParamGroup{
			Name:       fmt.Sprintf("filter.%d", i),
			Params:     f.W,
			Grads:      f.Dw,
			L1DecayMul: l1,
			L2DecayMul: l2,
		})
	}
	return append(groups, ParamGroup{
		Name:   "bias",
		Params: biases.W,
		Grads:  biases.Dw,
	})
}

// mustShape panics when in does not have the shape the layer was built for.
func mustShape(who string, in *tensor.Tensor, want Shape) {
	if got := ShapeOf(in); got != want {
		panic(fmt.Sprintf("%s: input shape %v, want %v", who, got, want))
	}
}
