package layer

import (
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// LRNConfig holds the configuration of a local response normalization layer.
type LRNConfig struct {
	In Shape

	K     float64
	N     int // window size across depth, odd
	Alpha float64
	Beta  float64
}

// LRN normalizes each value by the energy of its neighbours across depth:
//
//	out(x,y,i) = a_i / (K + Alpha/N * sum_{|j-i| <= N/2} a_j^2)^Beta
type LRN struct {
	shape Shape
	k     float64
	n     int
	alpha float64
	beta  float64

	// sCache holds the denominator base per cell from the last Forward.
	sCache *tensor.Tensor

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewLRN creates a local response normalization layer.
func NewLRN(cfg LRNConfig) (*LRN, error) {
	if cfg.N <= 0 || cfg.N%2 == 0 {
		return nil, fmt.Errorf("%w: lrn window %d must be odd and positive", ErrInvalidConfig, cfg.N)
	}
	if cfg.In.Len() <= 0 {
		return nil, fmt.Errorf("%w: lrn input shape %v", ErrInvalidConfig, cfg.In)
	}
	return &LRN{
		shape: cfg.In,
		k:     cfg.K,
		n:     cfg.N,
		alpha: cfg.Alpha,
		beta:  cfg.Beta,
	}, nil
}

// Type returns TypeLRN.
func (l *LRN) Type() Type { return TypeLRN }

// OutShape returns the input shape.
func (l *LRN) OutShape() Shape { return l.shape }

func (l *LRN) window(i, depth int) (int, int) {
	n2 := l.n / 2
	return max(0, i-n2), min(i+n2, depth-1)
}

// Forward performs the normalization.
func (l *LRN) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	mustShape("LRN", in, l.shape)
	l.inAct = in
	out := in.CloneAndZero()
	l.sCache = in.CloneAndZero()

	scale := l.alpha / float64(l.n)
	for x := 0; x < in.Sx; x++ {
		for y := 0; y < in.Sy; y++ {
			for i := 0; i < in.Depth; i++ {
				lo, hi := l.window(i, in.Depth)
				den := 0.0
				for j := lo; j <= hi; j++ {
					aa := in.Get(x, y, j)
					den += aa * aa
				}
				den = den*scale + l.k
				l.sCache.Set(x, y, i, den)
				out.Set(x, y, i, in.Get(x, y, i)/math.Pow(den, l.beta))
			}
		}
	}

	l.outAct = out
	return out
}

// Backward propagates through the normalization, including the dependence
// of every denominator on the neighbouring values.
func (l *LRN) Backward() {
	in, out := l.inAct, l.outAct
	in.ZeroGrad()

	scale := l.alpha / float64(l.n)
	for x := 0; x < in.Sx; x++ {
		for y := 0; y < in.Sy; y++ {
			for i := 0; i < in.Depth; i++ {
				chain := out.GetGrad(x, y, i)
				s := l.sCache.Get(x, y, i)
				sb := math.Pow(s, l.beta)
				dS := -l.beta * math.Pow(s, -l.beta-1) * 2 * scale
				ai := in.Get(x, y, i)

				lo, hi := l.window(i, in.Depth)
				for j := lo; j <= hi; j++ {
					g := ai * dS * in.Get(x, y, j)
					if j == i {
						g += 1 / sb
					}
					in.AddGrad(x, y, j, g*chain)
				}
			}
		}
	}
}

// ParamsAndGrads returns nil.
func (l *LRN) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *LRN) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeLRN,
		OutSx:     l.shape.Sx,
		OutSy:     l.shape.Sy,
		OutDepth:  l.shape.Depth,
		K:         l.k,
		N:         l.n,
		Alpha:     l.alpha,
		Beta:      l.beta,
	}
}
