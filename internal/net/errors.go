package net

import "errors"

var (
	// ErrTooFewLayers is returned when a definition list has fewer than two
	// entries.
	ErrTooFewLayers = errors.New("net: at least an input and one more layer are required")

	// ErrFirstNotInput is returned when the first definition is not an input
	// layer.
	ErrFirstNotInput = errors.New("net: first layer must be an input layer")

	// ErrUnknownActivation is returned for an activation other than relu,
	// sigmoid, tanh or maxout.
	ErrUnknownActivation = errors.New("net: unsupported activation")

	// ErrUnknownType is returned for an unrecognized layer type.
	ErrUnknownType = errors.New("net: unknown layer type")

	// ErrLossNotLast is returned when a loss layer appears before the end of
	// the network.
	ErrLossNotLast = errors.New("net: loss layer must be the last layer")

	// ErrNoLossLayer is returned when the last layer does not produce a loss.
	ErrNoLossLayer = errors.New("net: last layer must be softmax, svm or regression")

	// ErrNotSoftmax is returned by Prediction when the last layer is not a
	// softmax layer.
	ErrNotSoftmax = errors.New("net: prediction requires a softmax output layer")

	// ErrNoForward is returned when a backward pass or a prediction is
	// requested before any forward pass.
	ErrNoForward = errors.New("net: no forward pass has been run")

	// ErrInvalidTarget is returned when a target does not fit the loss layer.
	ErrInvalidTarget = errors.New("net: invalid target for loss layer")
)
