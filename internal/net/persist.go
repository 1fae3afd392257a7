package net

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Limits on persisted shapes. Larger values can only come from corrupt
// input and are rejected before any buffer is allocated.
const (
	maxDim   = 1 << 20
	maxElems = 1 << 26
)

// restoreSeed seeds the generator handed to restored layers. Only dropout
// draws from it, so restored networks are reproducible.
const restoreSeed = 1

type networkJSON struct {
	Layers []layer.Descriptor `json:"layers"`
}

// Descriptors exports every layer for persistence, in order.
func (n *Network) Descriptors() []layer.Descriptor {
	ds := make([]layer.Descriptor, len(n.layers))
	for i, l := range n.layers {
		ds[i] = l.Descriptor()
	}
	return ds
}

// FromDescriptors rebuilds a network from persisted layer descriptors,
// checking that adjacent layers agree on their shapes.
func FromDescriptors(ds []layer.Descriptor, logger *slog.Logger) (*Network, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := tensor.NewGaussian(restoreSeed)
	layers := make([]layer.Layer, 0, len(ds))
	for i, d := range ds {
		if err := checkSize(d); err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, d.LayerType, err)
		}
		if i > 0 && !fits(layers[i-1].OutShape(), d) {
			return nil, fmt.Errorf("%w: layer %d (%s) does not accept %v",
				layer.ErrShapeMismatch, i, d.LayerType, layers[i-1].OutShape())
		}
		l, err := layer.FromDescriptor(d, g)
		if err != nil {
			return nil, fmt.Errorf("failed to restore layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return assemble(layers, logger)
}

// checkSize rejects descriptors whose dimensions or buffer sizes exceed the
// persisted-shape limits.
func checkSize(d layer.Descriptor) error {
	for _, v := range []int{
		d.InSx, d.InSy, d.InDepth, d.OutSx, d.OutSy, d.OutDepth,
		d.Sx, d.Sy, d.Stride, d.Pad, d.NumInputs, d.GroupSize, d.N,
	} {
		if v < 0 || v > maxDim {
			return fmt.Errorf("%w: dimension %d out of range", ErrBadCheckpoint, v)
		}
	}
	sizes := [][]int{
		{d.InSx, d.InSy, d.InDepth},
		{d.OutSx, d.OutSy, d.OutDepth},
		{d.OutDepth, d.Sx, d.Sy, d.InDepth},
		{d.OutDepth, d.NumInputs},
	}
	if (d.LayerType == layer.TypeConv || d.LayerType == layer.TypePool) && d.Stride > 0 {
		// The constructors derive the output shape, so bound it too.
		sizes = append(sizes, []int{
			max(layer.OutputSize(d.InSx, d.Sx, d.Stride, d.Pad), 0),
			max(layer.OutputSize(d.InSy, d.Sy, d.Stride, d.Pad), 0),
			max(d.InDepth, d.OutDepth),
		})
	}
	for _, dims := range sizes {
		if !withinElems(dims...) {
			return fmt.Errorf("%w: %v holds more than %d elements", ErrBadCheckpoint, dims, maxElems)
		}
	}
	return nil
}

// withinElems reports whether the product of dims, each in [0, maxDim], is
// at most maxElems.
func withinElems(dims ...int) bool {
	n := 1
	for _, v := range dims {
		if v == 0 {
			return true
		}
		n *= v
		if n > maxElems {
			return false
		}
	}
	return true
}

// fits reports whether a layer described by d accepts inputs of shape prev.
func fits(prev layer.Shape, d layer.Descriptor) bool {
	switch d.LayerType {
	case layer.TypeConv, layer.TypePool, layer.TypeMaxout:
		return d.InShape() == prev
	case layer.TypeFC, layer.TypeSoftmax, layer.TypeSVM, layer.TypeRegression:
		return d.NumInputs == prev.Len()
	case layer.TypeInput:
		return true // rejected by assemble with a clearer error
	default:
		return d.OutShape() == prev
	}
}

// MarshalJSON encodes the network as {"layers": [descriptor, ...]}.
func (n *Network) MarshalJSON() ([]byte, error) {
	return json.Marshal(networkJSON{Layers: n.Descriptors()})
}

// UnmarshalJSON replaces n with the network encoded in data.
func (n *Network) UnmarshalJSON(data []byte) error {
	var raw networkJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	restored, err := FromDescriptors(raw.Layers, n.logger)
	if err != nil {
		return err
	}
	*n = *restored
	return nil
}

// Save writes the network to filename: as JSON when the name ends in
// ".json", as a binary checkpoint otherwise.
func (n *Network) Save(filename string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(filename) {
		data, err = json.MarshalIndent(n, "", "  ")
	} else {
		data, err = n.MarshalBinary()
	}
	if err != nil {
		return fmt.Errorf("failed to encode network: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load reads a network written by Save.
func Load(filename string, logger *slog.Logger) (*Network, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	n := &Network{logger: logger}
	if isJSON(filename) {
		err = json.Unmarshal(data, n)
	} else {
		err = n.UnmarshalBinary(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return n, nil
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}
