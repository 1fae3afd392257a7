package layer

import "fmt"

type targetKind int

const (
	targetClass targetKind = iota
	targetVector
	targetDim
)

// Target is the supervision signal consumed by a loss layer: a class index,
// a full value vector, or a single (dimension, value) pair.
type Target struct {
	kind   targetKind
	class  int
	values []float64
	dim    int
	val    float64
}

// ClassTarget returns a class-index target.
func ClassTarget(class int) Target {
	return Target{kind: targetClass, class: class}
}

// VectorTarget returns a target holding one value per output.
func VectorTarget(values []float64) Target {
	return Target{kind: targetVector, values: values}
}

// DimTarget returns a target constraining a single output dimension.
func DimTarget(dim int, val float64) Target {
	return Target{kind: targetDim, dim: dim, val: val}
}

// Class returns the class index and whether the target is a class target.
func (t Target) Class() (int, bool) {
	return t.class, t.kind == targetClass
}

// Vector returns the values and whether the target is a vector target.
func (t Target) Vector() ([]float64, bool) {
	return t.values, t.kind == targetVector
}

// Dim returns the dimension/value pair and whether the target is a
// dimension target.
func (t Target) Dim() (int, float64, bool) {
	return t.dim, t.val, t.kind == targetDim
}

func (t Target) String() string {
	switch t.kind {
	case targetClass:
		return fmt.Sprintf("class(%d)", t.class)
	case targetVector:
		return fmt.Sprintf("vector(%v)", t.values)
	default:
		return fmt.Sprintf("dim(%d=%g)", t.dim, t.val)
	}
}

func (t Target) mustClass(who string) int {
	c, ok := t.Class()
	if !ok {
		panic(fmt.Sprintf("%s: expected class target, got %s", who, t))
	}
	return c
}
