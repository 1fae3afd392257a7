// Package opt provides the gradient-descent trainer and its update rules.
package opt

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownMethod is returned for an unsupported update method.
	ErrUnknownMethod = errors.New("opt: unknown method")

	// ErrInvalidOptions is returned when options are out of range.
	ErrInvalidOptions = errors.New("opt: invalid options")

	// ErrLayoutChanged is returned when the model's parameter groups no
	// longer match the ones the accumulators were allocated for.
	ErrLayoutChanged = errors.New("opt: parameter group layout changed")
)

// Method selects the parameter update rule.
type Method string

const (
	// SGD is plain stochastic gradient descent, with momentum when
	// Options.Momentum > 0.
	SGD        Method = "sgd"
	Adagrad    Method = "adagrad"
	Windowgrad Method = "windowgrad"
	Adadelta   Method = "adadelta"
	Nesterov   Method = "nesterov"
)

// Options configures a Trainer.
type Options struct {
	Method       Method  `json:"method" yaml:"method"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	L1Decay      float64 `json:"l1_decay" yaml:"l1_decay"`
	L2Decay      float64 `json:"l2_decay" yaml:"l2_decay"`
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	Momentum     float64 `json:"momentum" yaml:"momentum"` // sgd and nesterov
	Ro           float64 `json:"ro" yaml:"ro"`             // windowgrad and adadelta
	Eps          float64 `json:"eps" yaml:"eps"`
}

// DefaultOptions returns plain SGD with learning rate 0.01, no decay and a
// batch size of 1.
func DefaultOptions() Options {
	return Options{
		Method:       SGD,
		LearningRate: 0.01,
		BatchSize:    1,
		Momentum:     0.9,
		Ro:           0.95,
		Eps:          1e-6,
	}
}

// Validate checks that the options describe a usable trainer.
func (o Options) Validate() error {
	switch o.Method {
	case SGD, Adagrad, Windowgrad, Adadelta, Nesterov:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, o.Method)
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidOptions, o.BatchSize)
	}
	if o.LearningRate < 0 || o.L1Decay < 0 || o.L2Decay < 0 || o.Momentum < 0 || o.Eps < 0 {
		return fmt.Errorf("%w: negative rate in %+v", ErrInvalidOptions, o)
	}
	if o.Ro < 0 || o.Ro > 1 {
		return fmt.Errorf("%w: ro %g outside [0,1]", ErrInvalidOptions, o.Ro)
	}
	return nil
}

// needsGsum reports whether the method keeps a per-weight accumulator.
func (o Options) needsGsum() bool {
	return o.Method != SGD || o.Momentum > 0
}

// step applies one update of the configured rule to a single weight. g is
// the decayed, batch-averaged gradient and gsum, xsum are the weight's
// accumulators (xsum is only used by adadelta). It returns the delta to add
// to the weight and the new accumulator values.
func (o Options) step(g, gsum, xsum float64) (dx, gsumNext, xsumNext float64) {
	lr, mu, ro := o.LearningRate, o.Momentum, o.Ro

	switch o.Method {
	case Adagrad:
		gsum += g * g
		return -lr / math.Sqrt(gsum+o.Eps) * g, gsum, xsum

	case Windowgrad:
		gsum = ro*gsum + (1-ro)*g*g
		return -lr / math.Sqrt(gsum+o.Eps) * g, gsum, xsum

	case Adadelta:
		gsum = ro*gsum + (1-ro)*g*g
		dx = -math.Sqrt((xsum+o.Eps)/(gsum+o.Eps)) * g
		xsum = ro*xsum + (1-ro)*dx*dx
		return dx, gsum, xsum

	case Nesterov:
		prev := gsum
		gsum = gsum*mu + lr*g
		return mu*prev - (1+mu)*gsum, gsum, xsum
	}

	if mu > 0 {
		dx = mu*gsum - lr*g
		return dx, dx, xsum
	}
	return -lr * g, gsum, xsum
}

func sign(p float64) float64 {
	switch {
	case p > 0:
		return 1
	case p < 0:
		return -1
	}
	return 0
}
