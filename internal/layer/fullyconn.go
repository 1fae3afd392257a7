package layer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// FullyConnConfig holds the resolved configuration of a fully connected
// layer.
type FullyConnConfig struct {
	In         Shape
	NumNeurons int

	BiasPref   float64
	L1DecayMul float64
	L2DecayMul float64
}

// FullyConn is a fully connected layer: a convolution whose single filter
// application covers the whole flattened input.
type FullyConn struct {
	numInputs int
	out       Shape

	l1DecayMul float64
	l2DecayMul float64

	filters []*tensor.Tensor // (1, 1, numInputs) each
	biases  *tensor.Tensor

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewFullyConn creates a fully connected layer.
func NewFullyConn(cfg FullyConnConfig, g *tensor.Gaussian) (*FullyConn, error) {
	if cfg.In.Len() <= 0 || cfg.NumNeurons <= 0 {
		return nil, fmt.Errorf("%w: fc input %v, %d neurons", ErrInvalidConfig, cfg.In, cfg.NumNeurons)
	}

	n := cfg.In.Len()
	fc := &FullyConn{
		numInputs:  n,
		out:        Shape{Sx: 1, Sy: 1, Depth: cfg.NumNeurons},
		l1DecayMul: cfg.L1DecayMul,
		l2DecayMul: cfg.L2DecayMul,
		filters:    make([]*tensor.Tensor, cfg.NumNeurons),
		biases:     tensor.New(1, 1, cfg.NumNeurons, cfg.BiasPref),
	}
	for i := range fc.filters {
		fc.filters[i] = tensor.NewRandom(1, 1, n, g)
	}
	return fc, nil
}

// Type returns TypeFC.
func (fc *FullyConn) Type() Type { return TypeFC }

// OutShape returns (1, 1, num neurons).
func (fc *FullyConn) OutShape() Shape { return fc.out }

// NumInputs returns the flattened input size.
func (fc *FullyConn) NumInputs() int { return fc.numInputs }

// Filters returns the weight tensors, one per neuron.
func (fc *FullyConn) Filters() []*tensor.Tensor { return fc.filters }

// Biases returns the bias tensor.
func (fc *FullyConn) Biases() *tensor.Tensor { return fc.biases }

// Forward computes output[i] = bias[i] + <input, filter[i]>.
func (fc *FullyConn) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	if in.Len() != fc.numInputs {
		panic(fmt.Sprintf("FullyConn: input length %d, want %d", in.Len(), fc.numInputs))
	}
	fc.inAct = in
	out := tensor.New(1, 1, fc.out.Depth, 0)
	for i, f := range fc.filters {
		out.W[i] = fc.biases.W[i] + floats.Dot(in.W, f.W)
	}
	fc.outAct = out
	return out
}

// Backward performs backpropagation through the fully connected layer.
func (fc *FullyConn) Backward() {
	in := fc.inAct
	in.ZeroGrad()

	for i, f := range fc.filters {
		chain := fc.outAct.Dw[i]
		floats.AddScaled(in.Dw, chain, f.W)
		floats.AddScaled(f.Dw, chain, in.W)
		fc.biases.Dw[i] += chain
	}
}

// ParamsAndGrads returns one group per neuron followed by the bias group.
func (fc *FullyConn) ParamsAndGrads() []ParamGroup {
	return filterGroups(fc.filters, fc.biases, fc.l1DecayMul, fc.l2DecayMul)
}

// Descriptor exports the layer for persistence.
func (fc *FullyConn) Descriptor() Descriptor {
	return Descriptor{
		LayerType:  TypeFC,
		OutSx:      fc.out.Sx,
		OutSy:      fc.out.Sy,
		OutDepth:   fc.out.Depth,
		NumInputs:  fc.numInputs,
		L1DecayMul: fc.l1DecayMul,
		L2DecayMul: fc.l2DecayMul,
		Filters:    fc.filters,
		Biases:     fc.biases,
	}
}
