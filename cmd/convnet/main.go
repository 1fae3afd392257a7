// Command convnet trains a network described by a YAML configuration on a
// CSV dataset and saves the result.
//
//	convnet -config run.yaml -out model.bin [-data train.csv] [-log stats.csv] [-v]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"

	"github.com/FlavioCFOliveira/GoConvNet/internal/config"
	"github.com/FlavioCFOliveira/GoConvNet/internal/net"
	"github.com/FlavioCFOliveira/GoConvNet/internal/opt"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "convnet: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convnet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML run configuration (required)")
		dataPath   = fs.String("data", "", "CSV dataset, overrides data.path")
		outPath    = fs.String("out", "", "where to save the trained network; .json for JSON")
		statsPath  = fs.String("log", "", "write per-step training stats as CSV")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		fs.Usage()
		return fmt.Errorf("-config is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run", uuid.NewString())
	logger.Debug("host",
		"cpu", cpuid.CPU.BrandName,
		"cores", cpuid.CPU.PhysicalCores,
		"threads", cpuid.CPU.LogicalCores,
		"avx2", cpuid.CPU.Supports(cpuid.AVX2))

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if cfg.Data.Path == "" {
		return fmt.Errorf("no dataset: set data.path or -data")
	}

	train, test, err := loadData(cfg.Data)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "path", cfg.Data.Path, "train", train.Len(), "test", test.Len())

	network, err := net.New(cfg.Network, tensor.NewGaussian(cfg.Seed), logger)
	if err != nil {
		return err
	}
	if err := network.Summary(stdout); err != nil {
		return err
	}

	trainer, err := opt.New(network, cfg.Trainer, logger)
	if err != nil {
		return err
	}

	var stats *net.StatsLogger
	if *statsPath != "" {
		f, err := os.Create(*statsPath)
		if err != nil {
			return fmt.Errorf("failed to create stats log: %w", err)
		}
		defer f.Close()
		stats = net.NewStatsLogger(f)
	}

	shape := network.InShape()
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var total float64
		for i := 0; i < train.Len(); i++ {
			x, y, err := train.Sample(i, shape)
			if err != nil {
				return err
			}
			s, err := trainer.Train(x, y)
			if err != nil {
				return fmt.Errorf("epoch %d sample %d: %w", epoch, i, err)
			}
			total += s.Loss
			if stats != nil {
				if err := stats.Log(trainer.Step(), s); err != nil {
					return err
				}
			}
		}
		logger.Info("epoch done", "epoch", epoch, "loss", total/float64(max(train.Len(), 1)))
	}
	if stats != nil {
		if err := stats.Flush(); err != nil {
			return err
		}
	}

	if acc, ok, err := accuracy(network, train); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(stdout, "train accuracy: %.2f%%\n", acc*100)
	}
	if acc, ok, err := accuracy(network, test); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(stdout, "test accuracy: %.2f%%\n", acc*100)
	}

	if *outPath != "" {
		if err := network.Save(*outPath); err != nil {
			return err
		}
		logger.Info("network saved", "path", *outPath)
	}
	return nil
}

func loadData(d config.Data) (train, test *net.Dataset, err error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := net.LoadCSV(f, d.LabelCol, d.Header)
	if err != nil {
		return nil, nil, err
	}
	if d.Normalize {
		ds.Normalize()
	}
	train, test = ds.Split(d.Split)
	return train, test, nil
}

// accuracy reports the fraction of ds classified correctly. ok is false for
// an empty dataset or a network that does not end in softmax.
func accuracy(network *net.Network, ds *net.Dataset) (acc float64, ok bool, err error) {
	if ds.Len() == 0 {
		return 0, false, nil
	}
	correct := 0
	for i := 0; i < ds.Len(); i++ {
		x, y, err := ds.Sample(i, network.InShape())
		if err != nil {
			return 0, false, err
		}
		network.Predict(x)
		p, err := network.Prediction()
		if errors.Is(err, net.ErrNotSoftmax) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		if c, _ := y.Class(); c == p {
			correct++
		}
	}
	return float64(correct) / float64(ds.Len()), true, nil
}
