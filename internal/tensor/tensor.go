// Package tensor provides the dense 3D value container shared by all layers.
package tensor

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tensor is a dense width x height x depth array of values with a
// co-located gradient array of identical shape.
//
// Element (x, y, d) lives at index (Sx*y+x)*Depth+d in both W and Dw.
type Tensor struct {
	Sx    int
	Sy    int
	Depth int

	W  []float64 // values
	Dw []float64 // gradients
}

// New creates a tensor of the given shape with every value set to c.
func New(sx, sy, depth int, c float64) *Tensor {
	n := sx * sy * depth
	t := &Tensor{
		Sx:    sx,
		Sy:    sy,
		Depth: depth,
		W:     make([]float64, n),
		Dw:    make([]float64, n),
	}
	if c != 0 {
		t.SetConst(c)
	}
	return t
}

// NewRandom creates a tensor whose values are drawn from a zero-mean
// Gaussian with standard deviation sqrt(1/(sx*sy*depth)), keeping the
// variance of a neuron's output independent of its fan-in.
func NewRandom(sx, sy, depth int, g *Gaussian) *Tensor {
	t := New(sx, sy, depth, 0)
	scale := math.Sqrt(1.0 / float64(sx*sy*depth))
	for i := range t.W {
		t.W[i] = g.Sample(0, scale)
	}
	return t
}

// FromSlice creates a 1x1xlen(v) tensor holding a copy of v.
func FromSlice(v []float64) *Tensor {
	t := New(1, 1, len(v), 0)
	copy(t.W, v)
	return t
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.W)
}

// Index returns the flat offset of element (x, y, d).
func (t *Tensor) Index(x, y, d int) int {
	return (t.Sx*y+x)*t.Depth + d
}

// Get returns the value at (x, y, d).
func (t *Tensor) Get(x, y, d int) float64 {
	return t.W[t.Index(x, y, d)]
}

// Set stores v at (x, y, d).
func (t *Tensor) Set(x, y, d int, v float64) {
	t.W[t.Index(x, y, d)] = v
}

// Add accumulates v into the value at (x, y, d).
func (t *Tensor) Add(x, y, d int, v float64) {
	t.W[t.Index(x, y, d)] += v
}

// GetGrad returns the gradient at (x, y, d).
func (t *Tensor) GetGrad(x, y, d int) float64 {
	return t.Dw[t.Index(x, y, d)]
}

// SetGrad stores v in the gradient at (x, y, d).
func (t *Tensor) SetGrad(x, y, d int, v float64) {
	t.Dw[t.Index(x, y, d)] = v
}

// AddGrad accumulates v into the gradient at (x, y, d).
func (t *Tensor) AddGrad(x, y, d int, v float64) {
	t.Dw[t.Index(x, y, d)] += v
}

// CloneAndZero returns a tensor of the same shape with all values zero.
func (t *Tensor) CloneAndZero() *Tensor {
	return New(t.Sx, t.Sy, t.Depth, 0)
}

// Clone returns a deep copy of the values; the copy's gradients are zero.
func (t *Tensor) Clone() *Tensor {
	c := New(t.Sx, t.Sy, t.Depth, 0)
	copy(c.W, t.W)
	return c
}

// AddFrom adds the values of o element-wise.
func (t *Tensor) AddFrom(o *Tensor) {
	floats.Add(t.W, o.W)
}

// AddFromScaled adds a*o element-wise.
func (t *Tensor) AddFromScaled(o *Tensor, a float64) {
	floats.AddScaled(t.W, a, o.W)
}

// SetConst sets every value to a.
func (t *Tensor) SetConst(a float64) {
	for i := range t.W {
		t.W[i] = a
	}
}

// ZeroGrad clears the gradient buffer.
func (t *Tensor) ZeroGrad() {
	for i := range t.Dw {
		t.Dw[i] = 0
	}
}

// SameShape reports whether o has the same dimensions as t.
func (t *Tensor) SameShape(o *Tensor) bool {
	return t.Sx == o.Sx && t.Sy == o.Sy && t.Depth == o.Depth
}

type tensorJSON struct {
	Sx    int       `json:"sx"`
	Sy    int       `json:"sy"`
	Depth int       `json:"depth"`
	W     []float64 `json:"w"`
}

// MarshalJSON exports shape and values. Gradients are never persisted.
func (t *Tensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(tensorJSON{Sx: t.Sx, Sy: t.Sy, Depth: t.Depth, W: t.W})
}

// UnmarshalJSON restores shape and values and reallocates a zero gradient
// buffer of matching size.
func (t *Tensor) UnmarshalJSON(data []byte) error {
	var raw tensorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return t.Reset(raw.Sx, raw.Sy, raw.Depth, raw.W)
}

// Reset reshapes the tensor to (sx, sy, depth), copies w into the values and
// zero-fills the gradients. len(w) must equal sx*sy*depth.
func (t *Tensor) Reset(sx, sy, depth int, w []float64) error {
	if sx < 0 || sy < 0 || depth < 0 {
		return fmt.Errorf("tensor: negative shape %dx%dx%d", sx, sy, depth)
	}
	n := sx * sy * depth
	if len(w) != n {
		return fmt.Errorf("tensor: %d values for shape %dx%dx%d", len(w), sx, sy, depth)
	}
	t.Sx, t.Sy, t.Depth = sx, sy, depth
	t.W = make([]float64, n)
	t.Dw = make([]float64, n)
	copy(t.W, w)
	return nil
}
