package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/net"
	"github.com/FlavioCFOliveira/GoConvNet/internal/opt"
)

const sample = `
network:
  - {type: input, out_sx: 1, out_sy: 1, out_depth: 2}
  - {type: fc, num_neurons: 8, activation: relu, drop_prob: 0.1}
  - {type: softmax, num_classes: 2}
trainer: {method: adadelta, batch_size: 4, l2_decay: 0.001}
data: {path: train.csv, header: true}
epochs: 50
seed: 7
`

func TestLoad(t *testing.T) {
	cfg, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, cfg.Network, 3)
	assert.Equal(t, layer.TypeFC, cfg.Network[1].Type)
	assert.Equal(t, 8, cfg.Network[1].NumNeurons)
	assert.Equal(t, "relu", cfg.Network[1].Activation)
	require.NotNil(t, cfg.Network[1].DropProb)
	assert.Equal(t, 0.1, *cfg.Network[1].DropProb)
	assert.Nil(t, cfg.Network[1].BiasPref)

	assert.Equal(t, opt.Adadelta, cfg.Trainer.Method)
	assert.Equal(t, 4, cfg.Trainer.BatchSize)
	assert.Equal(t, 0.001, cfg.Trainer.L2Decay)
	// Unset trainer keys keep their defaults.
	assert.Equal(t, 0.95, cfg.Trainer.Ro)
	assert.Equal(t, 1e-6, cfg.Trainer.Eps)
	assert.Equal(t, 0.01, cfg.Trainer.LearningRate)

	assert.Equal(t, "train.csv", cfg.Data.Path)
	assert.True(t, cfg.Data.Header)
	assert.Equal(t, -1, cfg.Data.LabelCol)
	assert.Equal(t, 1.0, cfg.Data.Split)
	assert.Equal(t, 50, cfg.Epochs)
	assert.Equal(t, int64(7), cfg.Seed)

	_, err = net.New(cfg.Network, nil, nil)
	assert.NoError(t, err)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown key", "network: []\nepoch: 3\n"},
		{"unknown layer key", "network:\n  - {type: input, depth: 2}\n  - {type: softmax, num_classes: 2}\n"},
		{"no network", "epochs: 3\n"},
		{"bad method", strings.Replace(sample, "method: adadelta", "method: adam", 1)},
		{"bad activation", "network:\n  - {type: input, out_depth: 2}\n  - {type: fc, num_neurons: 2, activation: gelu}\n  - {type: softmax, num_classes: 2}\n"},
		{"zero epochs", strings.Replace(sample, "epochs: 50", "epochs: 0", 1)},
		{"bad split", strings.Replace(sample, "header: true", "header: true, split: 1.5", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsUnknownLayerType(t *testing.T) {
	doc := strings.Replace(sample, "{type: fc,", "{type: convolution,", 1)
	_, err := Load(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, net.ErrUnknownType)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Epochs)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
