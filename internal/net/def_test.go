package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

func types(defs []Def) []layer.Type {
	ts := make([]layer.Type, len(defs))
	for i, d := range defs {
		ts[i] = d.Type
	}
	return ts
}

func TestDesugarInsertsImpliedLayers(t *testing.T) {
	defs, err := Desugar([]Def{
		{Type: layer.TypeInput, OutSx: 8, OutSy: 8, OutDepth: 3},
		{Type: layer.TypeConv, Sx: 5, Filters: 16, Activation: "relu"},
		{Type: layer.TypePool, Sx: 2},
		{Type: layer.TypeFC, NumNeurons: 20, Activation: "tanh", DropProb: Float(0.2)},
		{Type: layer.TypeSoftmax, NumClasses: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, []layer.Type{
		layer.TypeInput,
		layer.TypeConv, layer.TypeReLU,
		layer.TypePool,
		layer.TypeFC, layer.TypeTanh, layer.TypeDropout,
		layer.TypeFC, layer.TypeSoftmax,
	}, types(defs))

	require.NotNil(t, defs[1].BiasPref)
	assert.Equal(t, 0.1, *defs[1].BiasPref, "relu conv")
	assert.Empty(t, defs[1].Activation)

	require.NotNil(t, defs[4].BiasPref)
	assert.Equal(t, 0.0, *defs[4].BiasPref, "tanh fc")
	assert.Nil(t, defs[4].DropProb)
	require.NotNil(t, defs[6].DropProb)
	assert.Equal(t, 0.2, *defs[6].DropProb)

	assert.Equal(t, 10, defs[7].NumNeurons)
}

func TestDesugarRegressionAndSVM(t *testing.T) {
	defs, err := Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeRegression, NumNeurons: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []layer.Type{layer.TypeInput, layer.TypeFC, layer.TypeRegression}, types(defs))
	assert.Equal(t, 3, defs[1].NumNeurons)

	defs, err = Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeSVM, NumClasses: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []layer.Type{layer.TypeInput, layer.TypeFC, layer.TypeSVM}, types(defs))
	assert.Equal(t, 4, defs[1].NumNeurons)
}

func TestDesugarKeepsExplicitBiasPref(t *testing.T) {
	defs, err := Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeFC, NumNeurons: 2, Activation: "relu", BiasPref: Float(0)},
		{Type: layer.TypeSoftmax, NumClasses: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, *defs[1].BiasPref)
}

func TestDesugarMaxout(t *testing.T) {
	defs, err := Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeFC, NumNeurons: 6, Activation: "maxout"},
		{Type: layer.TypeFC, NumNeurons: 6, Activation: "maxout", GroupSize: 3},
		{Type: layer.TypeSoftmax, NumClasses: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, layer.TypeMaxout, defs[2].Type)
	assert.Equal(t, 2, defs[2].GroupSize)
	assert.Equal(t, layer.TypeMaxout, defs[4].Type)
	assert.Equal(t, 3, defs[4].GroupSize)
}

func TestDesugarDropoutLayerNotDoubled(t *testing.T) {
	defs, err := Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeDropout, DropProb: Float(0.3)},
		{Type: layer.TypeSoftmax, NumClasses: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []layer.Type{layer.TypeInput, layer.TypeDropout, layer.TypeFC, layer.TypeSoftmax}, types(defs))
	assert.Equal(t, 0.3, *defs[1].DropProb)
}

func TestDesugarErrors(t *testing.T) {
	_, err := Desugar([]Def{{Type: layer.TypeInput, OutDepth: 1}})
	assert.ErrorIs(t, err, ErrTooFewLayers)

	_, err = Desugar(nil)
	assert.ErrorIs(t, err, ErrTooFewLayers)

	_, err = Desugar([]Def{{Type: layer.TypeFC, NumNeurons: 1}, {Type: layer.TypeSoftmax, NumClasses: 2}})
	assert.ErrorIs(t, err, ErrFirstNotInput)

	_, err = Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 1},
		{Type: "convolution", Sx: 3},
		{Type: layer.TypeSoftmax, NumClasses: 2},
	})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Desugar([]Def{
		{Type: layer.TypeInput, OutDepth: 1},
		{Type: layer.TypeFC, NumNeurons: 2, Activation: "swish"},
	})
	assert.ErrorIs(t, err, ErrUnknownActivation)
}

func TestNewErrors(t *testing.T) {
	g := tensor.NewGaussian(1)

	_, err := New([]Def{
		{Type: layer.TypeInput, OutDepth: 1},
		{Type: "batchnorm"},
		{Type: layer.TypeSoftmax, NumClasses: 2},
	}, g, nil)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = New([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeSoftmax, NumClasses: 2},
		{Type: layer.TypeFC, NumNeurons: 2},
	}, g, nil)
	assert.ErrorIs(t, err, ErrLossNotLast)

	_, err = New([]Def{
		{Type: layer.TypeInput, OutDepth: 2},
		{Type: layer.TypeFC, NumNeurons: 2},
	}, g, nil)
	assert.ErrorIs(t, err, ErrNoLossLayer)

	_, err = New([]Def{
		{Type: layer.TypeInput, OutSx: 2, OutSy: 2, OutDepth: 1},
		{Type: layer.TypeConv, Sx: 5, Filters: 1},
		{Type: layer.TypeSoftmax, NumClasses: 2},
	}, g, nil)
	assert.ErrorIs(t, err, layer.ErrInvalidConfig)
}

func TestNewAppliesDefaults(t *testing.T) {
	n, err := New([]Def{
		{Type: layer.TypeInput, OutSx: 8, OutSy: 8, OutDepth: 1},
		{Type: layer.TypeConv, Sx: 3, Filters: 2},
		{Type: layer.TypePool, Sx: 2},
		{Type: layer.TypeFC, NumNeurons: 4},
		{Type: layer.TypeDropout},
		{Type: layer.TypeSoftmax, NumClasses: 3},
	}, tensor.NewGaussian(1), nil)
	require.NoError(t, err)

	ls := n.Layers()
	conv := ls[1].Descriptor()
	assert.Equal(t, 3, conv.Sy, "sy defaults to sx")
	assert.Equal(t, 1, conv.Stride)
	assert.Equal(t, 0, conv.Pad)
	assert.Equal(t, 1.0, conv.L2DecayMul)
	assert.Zero(t, conv.L1DecayMul)
	assert.Equal(t, layer.Shape{Sx: 6, Sy: 6, Depth: 2}, ls[1].OutShape())

	pool := ls[2].Descriptor()
	assert.Equal(t, 2, pool.Stride)
	assert.Equal(t, layer.Shape{Sx: 3, Sy: 3, Depth: 2}, ls[2].OutShape())

	assert.Equal(t, 0.5, ls[4].Descriptor().DropProb)
	assert.Equal(t, layer.Shape{Sx: 1, Sy: 1, Depth: 3}, n.OutShape())
}
