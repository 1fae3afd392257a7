// Package layer provides neural network layer implementations.
//
// Layers operate on *tensor.Tensor values. A layer's output tensor becomes
// the next layer's input by reference: during the backward pass the
// downstream layer writes into the gradient half of that tensor, and the
// upstream layer reads it back as its chain gradient. Values are never
// mutated by the receiving layer.
package layer

import (
	"errors"

	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

var (
	// ErrInvalidConfig is returned when a layer configuration cannot produce
	// a valid layer.
	ErrInvalidConfig = errors.New("layer: invalid configuration")

	// ErrUnknownType is returned when a descriptor names no known layer.
	ErrUnknownType = errors.New("layer: unknown layer type")

	// ErrShapeMismatch is returned when persisted tensors do not fit the
	// layer they are loaded into.
	ErrShapeMismatch = errors.New("layer: shape mismatch")
)

// Type identifies a layer kind.
type Type string

const (
	TypeInput      Type = "input"
	TypeConv       Type = "conv"
	TypePool       Type = "pool"
	TypeFC         Type = "fc"
	TypeReLU       Type = "relu"
	TypeSigmoid    Type = "sigmoid"
	TypeTanh       Type = "tanh"
	TypeMaxout     Type = "maxout"
	TypeDropout    Type = "dropout"
	TypeLRN        Type = "lrn"
	TypeSoftmax    Type = "softmax"
	TypeSVM        Type = "svm"
	TypeRegression Type = "regression"
)

// IsLoss reports whether t is a terminal loss-producing layer kind.
func (t Type) IsLoss() bool {
	return t == TypeSoftmax || t == TypeSVM || t == TypeRegression
}

// Shape is the (width, height, depth) extent of a tensor.
type Shape struct {
	Sx    int
	Sy    int
	Depth int
}

// Len returns the number of elements of a tensor with this shape.
func (s Shape) Len() int {
	return s.Sx * s.Sy * s.Depth
}

// ShapeOf returns the shape of t.
func ShapeOf(t *tensor.Tensor) Shape {
	return Shape{Sx: t.Sx, Sy: t.Sy, Depth: t.Depth}
}

// ParamGroup is one unit of trainable parameters as handed to the trainer.
// Params and Grads alias the owning layer's buffers.
type ParamGroup struct {
	// Name is stable for the lifetime of the layer ("filter.3", "bias").
	Name string

	Params []float64
	Grads  []float64

	L1DecayMul float64
	L2DecayMul float64
}

// Layer is the capability set shared by every layer kind.
type Layer interface {
	// Type returns the layer kind.
	Type() Type

	// Forward computes a fresh output tensor from in. The layer keeps a
	// reference to both for the backward pass.
	Forward(in *tensor.Tensor, training bool) *tensor.Tensor

	// ParamsAndGrads returns the layer's parameter groups in a fixed order:
	// filters first, then the bias group. Parameter-free layers return nil.
	ParamsAndGrads() []ParamGroup

	// OutShape returns the shape of the tensor produced by Forward.
	OutShape() Shape

	// Descriptor exports the layer for persistence.
	Descriptor() Descriptor
}

// Hidden is a layer that propagates the gradient stored in its output
// tensor back into its input tensor.
type Hidden interface {
	Layer

	// Backward clears the input gradient, then accumulates into it and into
	// the layer's own parameter gradients.
	Backward()
}

// Loss is a terminal layer that seeds the backward pass from a target.
type Loss interface {
	Layer

	// BackwardLoss writes dLoss/dInput into the input tensor's gradient and
	// returns the loss.
	BackwardLoss(y Target) float64
}

// OutputSize returns floor((in+2*pad-filter)/stride)+1, the number of
// filter applications along one spatial axis. A trailing partial
// application is dropped.
func OutputSize(in, filter, stride, pad int) int {
	return (in+2*pad-filter)/stride + 1
}
