package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvNet/internal/loss"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Softmax turns its flattened input into class probabilities and trains
// with the cross-entropy loss.
type Softmax struct {
	numInputs int

	inAct  *tensor.Tensor
	outAct *tensor.Tensor
}

// NewSoftmax creates a softmax layer over the flattened input.
func NewSoftmax(in Shape) (*Softmax, error) {
	if in.Len() <= 0 {
		return nil, fmt.Errorf("%w: softmax input shape %v", ErrInvalidConfig, in)
	}
	return &Softmax{numInputs: in.Len()}, nil
}

// Type returns TypeSoftmax.
func (l *Softmax) Type() Type { return TypeSoftmax }

// OutShape returns (1, 1, num classes).
func (l *Softmax) OutShape() Shape { return Shape{Sx: 1, Sy: 1, Depth: l.numInputs} }

// Forward computes class probabilities.
func (l *Softmax) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	l.inAct = in
	out := tensor.New(1, 1, l.numInputs, 0)
	loss.Softmax(in.W, out.W)
	l.outAct = out
	return out
}

// BackwardLoss returns the cross-entropy loss of class y. y must be a
// class target.
func (l *Softmax) BackwardLoss(y Target) float64 {
	c := y.mustClass("Softmax")
	return loss.SoftmaxCrossEntropy(l.outAct.W, c, l.inAct.Dw)
}

// ParamsAndGrads returns nil.
func (l *Softmax) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *Softmax) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeSoftmax,
		OutSx:     1,
		OutSy:     1,
		OutDepth:  l.numInputs,
		NumInputs: l.numInputs,
	}
}

// SVM outputs its input scores unchanged and trains with the multiclass
// hinge loss (margin 1).
type SVM struct {
	numInputs int

	inAct *tensor.Tensor
}

// NewSVM creates an SVM loss layer.
func NewSVM(in Shape) (*SVM, error) {
	if in.Len() <= 0 {
		return nil, fmt.Errorf("%w: svm input shape %v", ErrInvalidConfig, in)
	}
	return &SVM{numInputs: in.Len()}, nil
}

// Type returns TypeSVM.
func (l *SVM) Type() Type { return TypeSVM }

// OutShape returns (1, 1, num classes).
func (l *SVM) OutShape() Shape { return Shape{Sx: 1, Sy: 1, Depth: l.numInputs} }

// Forward returns in.
func (l *SVM) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	l.inAct = in
	return in
}

// BackwardLoss returns the hinge loss of class y.
func (l *SVM) BackwardLoss(y Target) float64 {
	c := y.mustClass("SVM")
	return loss.MulticlassHinge(l.inAct.W, c, 1.0, l.inAct.Dw)
}

// ParamsAndGrads returns nil.
func (l *SVM) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *SVM) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeSVM,
		OutSx:     1,
		OutSy:     1,
		OutDepth:  l.numInputs,
		NumInputs: l.numInputs,
	}
}

// Regression outputs its input unchanged and trains with half the squared
// error.
type Regression struct {
	numInputs int

	inAct *tensor.Tensor
}

// NewRegression creates a regression loss layer.
func NewRegression(in Shape) (*Regression, error) {
	if in.Len() <= 0 {
		return nil, fmt.Errorf("%w: regression input shape %v", ErrInvalidConfig, in)
	}
	return &Regression{numInputs: in.Len()}, nil
}

// Type returns TypeRegression.
func (l *Regression) Type() Type { return TypeRegression }

// OutShape returns (1, 1, num outputs).
func (l *Regression) OutShape() Shape { return Shape{Sx: 1, Sy: 1, Depth: l.numInputs} }

// Forward returns in.
func (l *Regression) Forward(in *tensor.Tensor, _ bool) *tensor.Tensor {
	l.inAct = in
	return in
}

// BackwardLoss returns the loss against y. A vector target constrains every
// output, a dimension target only the named one, and a class target c is
// read as the value c for output 0.
func (l *Regression) BackwardLoss(y Target) float64 {
	x := l.inAct
	if v, ok := y.Vector(); ok {
		return loss.HalfSquared(x.W, v, x.Dw)
	}

	dim, val, ok := y.Dim()
	if !ok {
		c, _ := y.Class()
		dim, val = 0, float64(c)
	}
	x.ZeroGrad()
	dy := x.W[dim] - val
	x.Dw[dim] = dy
	return 0.5 * dy * dy
}

// ParamsAndGrads returns nil.
func (l *Regression) ParamsAndGrads() []ParamGroup { return nil }

// Descriptor exports the layer for persistence.
func (l *Regression) Descriptor() Descriptor {
	return Descriptor{
		LayerType: TypeRegression,
		OutSx:     1,
		OutSy:     1,
		OutDepth:  l.numInputs,
		NumInputs: l.numInputs,
	}
}
