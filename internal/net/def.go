package net

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Def is a declarative layer definition as written by users, in code or in a
// YAML/JSON document. Only the fields relevant to Type are read; zero values
// take the documented defaults. Fields whose zero value is meaningful are
// pointers, nil meaning unset.
type Def struct {
	Type layer.Type `json:"type" yaml:"type"`

	// input
	OutSx    int `json:"out_sx,omitempty" yaml:"out_sx,omitempty"`       // default 1
	OutSy    int `json:"out_sy,omitempty" yaml:"out_sy,omitempty"`       // default 1
	OutDepth int `json:"out_depth,omitempty" yaml:"out_depth,omitempty"` // also conv filter count

	// conv and pool
	Sx      int `json:"sx,omitempty" yaml:"sx,omitempty"`
	Sy      int `json:"sy,omitempty" yaml:"sy,omitempty"`         // default Sx
	Stride  int `json:"stride,omitempty" yaml:"stride,omitempty"` // default 1 for conv, 2 for pool
	Pad     int `json:"pad,omitempty" yaml:"pad,omitempty"`
	Filters int `json:"filters,omitempty" yaml:"filters,omitempty"`

	// fc, regression, softmax and svm
	NumNeurons int `json:"num_neurons,omitempty" yaml:"num_neurons,omitempty"`
	NumClasses int `json:"num_classes,omitempty" yaml:"num_classes,omitempty"`

	// any layer
	Activation string   `json:"activation,omitempty" yaml:"activation,omitempty"`
	GroupSize  int      `json:"group_size,omitempty" yaml:"group_size,omitempty"` // maxout, default 2
	DropProb   *float64 `json:"drop_prob,omitempty" yaml:"drop_prob,omitempty"`   // dropout, default 0.5

	BiasPref   *float64 `json:"bias_pref,omitempty" yaml:"bias_pref,omitempty"`
	L1DecayMul float64  `json:"l1_decay_mul,omitempty" yaml:"l1_decay_mul,omitempty"`
	L2DecayMul *float64 `json:"l2_decay_mul,omitempty" yaml:"l2_decay_mul,omitempty"` // default 1

	// lrn
	K     float64 `json:"k,omitempty" yaml:"k,omitempty"`
	N     int     `json:"n,omitempty" yaml:"n,omitempty"`
	Alpha float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
}

// Float returns a pointer to v, for the optional fields of Def.
func Float(v float64) *float64 { return &v }

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

var knownTypes = map[layer.Type]bool{
	layer.TypeInput: true, layer.TypeConv: true, layer.TypePool: true, layer.TypeFC: true,
	layer.TypeReLU: true, layer.TypeSigmoid: true, layer.TypeTanh: true, layer.TypeMaxout: true,
	layer.TypeDropout: true, layer.TypeLRN: true,
	layer.TypeSoftmax: true, layer.TypeSVM: true, layer.TypeRegression: true,
}

// Desugar expands convenience definitions into the explicit list of layers
// that New instantiates:
//   - softmax and svm get a preceding fc layer with NumClasses neurons,
//     regression one with NumNeurons neurons;
//   - conv and fc without BiasPref get 0.1 when followed by relu, else 0;
//   - an Activation appends the matching relu, sigmoid, tanh or maxout layer;
//   - a DropProb on any non-dropout layer appends a dropout layer.
func Desugar(defs []Def) ([]Def, error) {
	if len(defs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewLayers, len(defs))
	}
	if defs[0].Type != layer.TypeInput {
		return nil, fmt.Errorf("%w: got %q", ErrFirstNotInput, defs[0].Type)
	}

	out := make([]Def, 0, 2*len(defs))
	for i, d := range defs {
		if !knownTypes[d.Type] {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownType, d.Type, i)
		}
		switch d.Type {
		case layer.TypeSoftmax, layer.TypeSVM:
			out = append(out, Def{Type: layer.TypeFC, NumNeurons: d.NumClasses})
		case layer.TypeRegression:
			out = append(out, Def{Type: layer.TypeFC, NumNeurons: d.NumNeurons})
		}

		base := d
		base.Activation = ""
		if base.Type != layer.TypeDropout {
			base.DropProb = nil
		}
		if (d.Type == layer.TypeFC || d.Type == layer.TypeConv) && d.BiasPref == nil {
			bp := 0.0
			if d.Activation == string(layer.TypeReLU) {
				bp = 0.1
			}
			base.BiasPref = &bp
		}
		out = append(out, base)

		switch layer.Type(d.Activation) {
		case "":
		case layer.TypeReLU, layer.TypeSigmoid, layer.TypeTanh:
			out = append(out, Def{Type: layer.Type(d.Activation)})
		case layer.TypeMaxout:
			out = append(out, Def{Type: layer.TypeMaxout, GroupSize: orDefault(d.GroupSize, 2)})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, d.Activation)
		}

		if d.DropProb != nil && d.Type != layer.TypeDropout {
			out = append(out, Def{Type: layer.TypeDropout, DropProb: d.DropProb})
		}
	}
	return out, nil
}

// build instantiates d for inputs of shape in.
func (d Def) build(in layer.Shape, g *tensor.Gaussian) (layer.Layer, error) {
	switch d.Type {
	case layer.TypeInput:
		return layer.NewInput(layer.Shape{
			Sx:    orDefault(d.OutSx, 1),
			Sy:    orDefault(d.OutSy, 1),
			Depth: d.OutDepth,
		})

	case layer.TypeConv:
		return layer.NewConv(layer.ConvConfig{
			In:         in,
			Sx:         d.Sx,
			Sy:         orDefault(d.Sy, d.Sx),
			Filters:    orDefault(d.Filters, d.OutDepth),
			Stride:     orDefault(d.Stride, 1),
			Pad:        d.Pad,
			BiasPref:   deref(d.BiasPref, 0),
			L1DecayMul: d.L1DecayMul,
			L2DecayMul: deref(d.L2DecayMul, 1),
		}, g)

	case layer.TypePool:
		return layer.NewPool(layer.PoolConfig{
			In:     in,
			Sx:     d.Sx,
			Sy:     orDefault(d.Sy, d.Sx),
			Stride: orDefault(d.Stride, 2),
			Pad:    d.Pad,
		})

	case layer.TypeFC:
		return layer.NewFullyConn(layer.FullyConnConfig{
			In:         in,
			NumNeurons: d.NumNeurons,
			BiasPref:   deref(d.BiasPref, 0),
			L1DecayMul: d.L1DecayMul,
			L2DecayMul: deref(d.L2DecayMul, 1),
		}, g)

	case layer.TypeReLU, layer.TypeSigmoid, layer.TypeTanh:
		return layer.NewNonlinearity(d.Type, in)

	case layer.TypeMaxout:
		return layer.NewMaxout(in, orDefault(d.GroupSize, 2))

	case layer.TypeDropout:
		return layer.NewDropout(in, deref(d.DropProb, 0.5), g)

	case layer.TypeLRN:
		return layer.NewLRN(layer.LRNConfig{In: in, K: d.K, N: d.N, Alpha: d.Alpha, Beta: d.Beta})

	case layer.TypeSoftmax:
		return layer.NewSoftmax(in)

	case layer.TypeSVM:
		return layer.NewSVM(in)

	case layer.TypeRegression:
		return layer.NewRegression(in)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, d.Type)
}
