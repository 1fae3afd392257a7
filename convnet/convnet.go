// Package convnet is the public entry point of the engine: tensors, layer
// definitions, networks and the trainer.
package convnet

import (
	"io"
	"log/slog"

	"github.com/FlavioCFOliveira/GoConvNet/internal/config"
	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/net"
	"github.com/FlavioCFOliveira/GoConvNet/internal/opt"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Re-export common types and functions for easier access
type (
	Tensor   = tensor.Tensor
	Gaussian = tensor.Gaussian

	Def        = net.Def
	Network    = net.Network
	Dataset    = net.Dataset
	LayerType  = layer.Type
	Shape      = layer.Shape
	Target     = layer.Target
	ParamGroup = layer.ParamGroup

	Trainer = opt.Trainer
	Options = opt.Options
	Method  = opt.Method
	Stats   = opt.Stats

	Config      = config.Config
	StatsLogger = net.StatsLogger
)

// Layer types
const (
	Input      = layer.TypeInput
	Conv       = layer.TypeConv
	Pool       = layer.TypePool
	FC         = layer.TypeFC
	ReLU       = layer.TypeReLU
	Sigmoid    = layer.TypeSigmoid
	Tanh       = layer.TypeTanh
	Maxout     = layer.TypeMaxout
	Dropout    = layer.TypeDropout
	LRN        = layer.TypeLRN
	Softmax    = layer.TypeSoftmax
	SVM        = layer.TypeSVM
	Regression = layer.TypeRegression
)

// Update methods
const (
	SGD        = opt.SGD
	Adagrad    = opt.Adagrad
	Windowgrad = opt.Windowgrad
	Adadelta   = opt.Adadelta
	Nesterov   = opt.Nesterov
)

// Tensors
func NewTensor(sx, sy, depth int, c float64) *Tensor { return tensor.New(sx, sy, depth, c) }
func FromSlice(v []float64) *Tensor                   { return tensor.FromSlice(v) }
func NewGaussian(seed int64) *Gaussian                { return tensor.NewGaussian(seed) }

// Targets
func ClassTarget(class int) Target          { return layer.ClassTarget(class) }
func VectorTarget(values []float64) Target  { return layer.VectorTarget(values) }
func DimTarget(dim int, val float64) Target { return layer.DimTarget(dim, val) }

// Float returns a pointer to v, for the optional fields of Def.
func Float(v float64) *float64 { return net.Float(v) }

// NewNetwork builds a network from layer definitions.
func NewNetwork(defs []Def, g *Gaussian, logger *slog.Logger) (*Network, error) {
	return net.New(defs, g, logger)
}

// LoadNetwork reads a network written by Network.Save.
func LoadNetwork(filename string, logger *slog.Logger) (*Network, error) {
	return net.Load(filename, logger)
}

// DefaultOptions returns the default trainer options.
func DefaultOptions() Options { return opt.DefaultOptions() }

// NewTrainer creates a trainer for n.
func NewTrainer(n *Network, o Options, logger *slog.Logger) (*Trainer, error) {
	return opt.New(n, o, logger)
}

// LoadConfig reads a YAML run configuration.
func LoadConfig(path string) (*Config, error) { return config.LoadFile(path) }

// LoadCSV reads a dataset with one class label column. A negative labelCol
// counts from the end.
func LoadCSV(r io.Reader, labelCol int, hasHeader bool) (*Dataset, error) {
	return net.LoadCSV(r, labelCol, hasHeader)
}

// NewStatsLogger writes training stats to w as CSV.
func NewStatsLogger(w io.Writer) *StatsLogger { return net.NewStatsLogger(w) }
