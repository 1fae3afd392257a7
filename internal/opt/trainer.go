package opt

import (
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Model is what a Trainer drives: a forward/backward pipeline exposing its
// parameter groups in a stable order.
type Model interface {
	Forward(in *tensor.Tensor, training bool) *tensor.Tensor
	Backward(y layer.Target) (float64, error)
	ParamsAndGrads() []layer.ParamGroup
}

// Stats reports one Train call.
type Stats struct {
	FwdTime time.Duration
	BwdTime time.Duration

	CostLoss    float64
	L1DecayLoss float64 // zero on steps without an update
	L2DecayLoss float64 // zero on steps without an update
	Loss        float64 // sum of the three above
}

// groupKey identifies one parameter group in the accumulator layout.
type groupKey struct {
	name string
	size int
}

// Trainer runs one example at a time through a Model and updates the
// parameters every BatchSize examples.
type Trainer struct {
	model Model
	opts  Options

	k int // examples processed

	// gsum and xsum are parallel to layout, allocated on the first update
	// that needs them.
	gsum   [][]float64
	xsum   [][]float64
	layout []groupKey

	logger *slog.Logger
}

// New creates a trainer for model. A nil logger uses slog.Default().
func New(model Model, opts Options, logger *slog.Logger) (*Trainer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{model: model, opts: opts, logger: logger}, nil
}

// Options returns the trainer configuration.
func (t *Trainer) Options() Options { return t.opts }

// Step returns the number of examples processed so far.
func (t *Trainer) Step() int { return t.k }

// Train runs x forward in training mode, backpropagates target y and, when
// the example count reaches a multiple of the batch size, updates every
// parameter from the accumulated gradients.
func (t *Trainer) Train(x *tensor.Tensor, y layer.Target) (Stats, error) {
	var stats Stats

	start := time.Now()
	t.model.Forward(x, true)
	stats.FwdTime = time.Since(start)

	start = time.Now()
	cost, err := t.model.Backward(y)
	if err != nil {
		return Stats{}, fmt.Errorf("backward pass failed: %w", err)
	}
	stats.BwdTime = time.Since(start)
	stats.CostLoss = cost

	t.k++
	if t.k%t.opts.BatchSize == 0 {
		l1, l2, err := t.update()
		if err != nil {
			return Stats{}, err
		}
		stats.L1DecayLoss, stats.L2DecayLoss = l1, l2
	}
	stats.Loss = stats.CostLoss + stats.L1DecayLoss + stats.L2DecayLoss
	return stats, nil
}

// update applies the configured rule to every weight and clears the raw
// gradients. It returns the L1 and L2 decay losses of the parameters before
// the update.
func (t *Trainer) update() (l1Loss, l2Loss float64, err error) {
	o := t.opts
	groups := t.model.ParamsAndGrads()

	if t.gsum == nil && o.needsGsum() {
		t.allocate(groups)
	}
	if t.gsum != nil {
		if err := t.checkLayout(groups); err != nil {
			return 0, 0, err
		}
	}

	batch := float64(o.BatchSize)
	for i, pg := range groups {
		l1 := o.L1Decay * pg.L1DecayMul
		l2 := o.L2Decay * pg.L2DecayMul
		l2Loss += l2 * floats.Dot(pg.Params, pg.Params) / 2
		l1Loss += l1 * floats.Norm(pg.Params, 1)

		var gsum, xsum []float64
		if t.gsum != nil {
			gsum = t.gsum[i]
		}
		if t.xsum != nil {
			xsum = t.xsum[i]
		}

		for j, p := range pg.Params {
			g := (l2*p + l1*sign(p) + pg.Grads[j]) / batch

			var gs, xs float64
			if gsum != nil {
				gs = gsum[j]
			}
			if xsum != nil {
				xs = xsum[j]
			}
			dx, gs, xs := o.step(g, gs, xs)
			if gsum != nil {
				gsum[j] = gs
			}
			if xsum != nil {
				xsum[j] = xs
			}

			pg.Params[j] += dx
			pg.Grads[j] = 0
		}
	}

	t.logger.Debug("parameters updated",
		"step", t.k,
		"method", o.Method,
		"groups", len(groups),
		"l1_decay_loss", l1Loss,
		"l2_decay_loss", l2Loss)
	return l1Loss, l2Loss, nil
}

func (t *Trainer) allocate(groups []layer.ParamGroup) {
	t.layout = make([]groupKey, len(groups))
	t.gsum = make([][]float64, len(groups))
	if t.opts.Method == Adadelta {
		t.xsum = make([][]float64, len(groups))
	}
	for i, pg := range groups {
		n := len(pg.Params)
		t.layout[i] = groupKey{name: pg.Name, size: n}
		t.gsum[i] = make([]float64, n)
		if t.xsum != nil {
			t.xsum[i] = make([]float64, n)
		}
	}
	t.logger.Debug("accumulators allocated", "method", t.opts.Method, "groups", len(groups))
}

func (t *Trainer) checkLayout(groups []layer.ParamGroup) error {
	if len(groups) != len(t.layout) {
		return fmt.Errorf("%w: %d groups, accumulators hold %d", ErrLayoutChanged, len(groups), len(t.layout))
	}
	for i, pg := range groups {
		want := t.layout[i]
		if pg.Name != want.name || len(pg.Params) != want.size {
			return fmt.Errorf("%w: group %d is %s[%d], accumulators hold %s[%d]",
				ErrLayoutChanged, i, pg.Name, len(pg.Params), want.name, want.size)
		}
	}
	return nil
}
