package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Descriptor is the persisted form of a layer: its kind, shape fields,
// type-specific scalars and, for conv and fc layers, the learned filters
// and biases. Gradients are never part of a descriptor.
type Descriptor struct {
	LayerType Type `json:"layer_type"`

	OutSx    int `json:"out_sx"`
	OutSy    int `json:"out_sy"`
	OutDepth int `json:"out_depth"`

	InSx    int `json:"in_sx,omitempty"`
	InSy    int `json:"in_sy,omitempty"`
	InDepth int `json:"in_depth,omitempty"`

	Sx     int `json:"sx,omitempty"`
	Sy     int `json:"sy,omitempty"`
	Stride int `json:"stride,omitempty"`
	Pad    int `json:"pad,omitempty"`

	NumInputs int `json:"num_inputs,omitempty"`
	GroupSize int `json:"group_size,omitempty"`

	L1DecayMul float64 `json:"l1_decay_mul,omitempty"`
	L2DecayMul float64 `json:"l2_decay_mul,omitempty"`
	DropProb   float64 `json:"drop_prob,omitempty"`

	K     float64 `json:"k,omitempty"`
	N     int     `json:"n,omitempty"`
	Alpha float64 `json:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty"`

	Filters []*tensor.Tensor `json:"filters,omitempty"`
	Biases  *tensor.Tensor   `json:"biases,omitempty"`
}

// InShape returns the recorded input shape. It is zero for layer kinds that
// only record NumInputs or whose input shape equals their output shape.
func (d Descriptor) InShape() Shape {
	return Shape{Sx: d.InSx, Sy: d.InSy, Depth: d.InDepth}
}

// OutShape returns the recorded output shape.
func (d Descriptor) OutShape() Shape {
	return Shape{Sx: d.OutSx, Sy: d.OutSy, Depth: d.OutDepth}
}

// FromDescriptor rebuilds a layer from its persisted form. rng seeds the
// layer's own randomness (dropout masks); learned parameters are taken from
// the descriptor.
func FromDescriptor(d Descriptor, rng *tensor.Gaussian) (Layer, error) {
	switch d.LayerType {
	case TypeInput:
		return NewInput(d.OutShape())

	case TypeConv:
		c, err := NewConv(ConvConfig{
			In:         d.InShape(),
			Sx:         d.Sx,
			Sy:         d.Sy,
			Filters:    d.OutDepth,
			Stride:     d.Stride,
			Pad:        d.Pad,
			L1DecayMul: d.L1DecayMul,
			L2DecayMul: d.L2DecayMul,
		}, rng)
		if err != nil {
			return nil, err
		}
		if c.OutShape() != d.OutShape() {
			return nil, fmt.Errorf("%w: conv output %v, descriptor says %v", ErrShapeMismatch, c.OutShape(), d.OutShape())
		}
		if err := loadParams(c.filters, c.biases, d); err != nil {
			return nil, err
		}
		return c, nil

	case TypeFC:
		fc, err := NewFullyConn(FullyConnConfig{
			In:         Shape{Sx: 1, Sy: 1, Depth: d.NumInputs},
			NumNeurons: d.OutDepth,
			L1DecayMul: d.L1DecayMul,
			L2DecayMul: d.L2DecayMul,
		}, rng)
		if err != nil {
			return nil, err
		}
		if err := loadParams(fc.filters, fc.biases, d); err != nil {
			return nil, err
		}
		return fc, nil

	case TypePool:
		return NewPool(PoolConfig{
			In:     d.InShape(),
			Sx:     d.Sx,
			Sy:     d.Sy,
			Stride: d.Stride,
			Pad:    d.Pad,
		})

	case TypeReLU, TypeSigmoid, TypeTanh:
		return NewNonlinearity(d.LayerType, d.OutShape())

	case TypeMaxout:
		return NewMaxout(d.InShape(), d.GroupSize)

	case TypeDropout:
		return NewDropout(d.OutShape(), d.DropProb, rng)

	case TypeLRN:
		return NewLRN(LRNConfig{In: d.OutShape(), K: d.K, N: d.N, Alpha: d.Alpha, Beta: d.Beta})

	case TypeSoftmax:
		return NewSoftmax(Shape{Sx: 1, Sy: 1, Depth: d.NumInputs})

	case TypeSVM:
		return NewSVM(Shape{Sx: 1, Sy: 1, Depth: d.NumInputs})

	case TypeRegression:
		return NewRegression(Shape{Sx: 1, Sy: 1, Depth: d.NumInputs})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, d.LayerType)
}

// loadParams copies persisted filters and biases into freshly built ones.
func loadParams(filters []*tensor.Tensor, biases *tensor.Tensor, d Descriptor) error {
	if len(d.Filters) != len(filters) {
		return fmt.Errorf("%w: %s has %d filters, descriptor has %d", ErrShapeMismatch, d.LayerType, len(filters), len(d.Filters))
	}
	for i, src := range d.Filters {
		if src == nil || !src.SameShape(filters[i]) {
			return fmt.Errorf("%w: %s filter %d", ErrShapeMismatch, d.LayerType, i)
		}
		copy(filters[i].W, src.W)
	}
	if d.Biases == nil || !d.Biases.SameShape(biases) {
		return fmt.Errorf("%w: %s biases", ErrShapeMismatch, d.LayerType)
	}
	copy(biases.W, d.Biases.W)
	return nil
}
