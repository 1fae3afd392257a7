// Package config loads run configurations: a network definition, trainer
// options and the dataset to train on.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/GoConvNet/internal/net"
	"github.com/FlavioCFOliveira/GoConvNet/internal/opt"
)

// ErrInvalid is returned when a configuration is structurally valid YAML
// but cannot describe a run.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is a complete training run.
type Config struct {
	Network []net.Def   `yaml:"network"`
	Trainer opt.Options `yaml:"trainer"`
	Data    Data        `yaml:"data"`

	Epochs int   `yaml:"epochs"`
	Seed   int64 `yaml:"seed"`
}

// Data describes the CSV dataset.
type Data struct {
	Path      string  `yaml:"path"`
	LabelCol  int     `yaml:"label_col"` // negative counts from the end
	Header    bool    `yaml:"header"`
	Normalize bool    `yaml:"normalize"`
	Split     float64 `yaml:"split"` // fraction used for training, the rest is held out
}

// Default returns a configuration with the trainer defaults, one epoch,
// seed 1 and the label in the last CSV column. It has no network.
func Default() Config {
	return Config{
		Trainer: opt.DefaultOptions(),
		Data:    Data{LabelCol: -1, Split: 1},
		Epochs:  1,
		Seed:    1,
	}
}

// Load decodes a YAML configuration from r on top of Default. Unknown keys
// are rejected.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and decodes the configuration file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks everything that can be checked without building the
// network.
func (c *Config) Validate() error {
	if _, err := net.Desugar(c.Network); err != nil {
		return fmt.Errorf("%w: network: %w", ErrInvalid, err)
	}
	if err := c.Trainer.Validate(); err != nil {
		return fmt.Errorf("%w: trainer: %w", ErrInvalid, err)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("%w: epochs %d", ErrInvalid, c.Epochs)
	}
	if c.Data.Split <= 0 || c.Data.Split > 1 {
		return fmt.Errorf("%w: data split %g outside (0,1]", ErrInvalid, c.Data.Split)
	}
	return nil
}
