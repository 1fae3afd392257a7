package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/FlavioCFOliveira/GoConvNet/convnet"
)

// Small CNN telling apart horizontal and vertical bars on 8x8 images.
func main() {
	fmt.Println("=== CNN Example ===")

	defs := []convnet.Def{
		{Type: convnet.Input, OutSx: 8, OutSy: 8, OutDepth: 1},
		{Type: convnet.Conv, Sx: 3, Filters: 4, Stride: 1, Pad: 1, Activation: "relu"},
		{Type: convnet.Pool, Sx: 2, Stride: 2},
		{Type: convnet.Softmax, NumClasses: 2},
	}
	network, err := convnet.NewNetwork(defs, convnet.NewGaussian(42), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building network: %v\n", err)
		os.Exit(1)
	}
	if err := network.Summary(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing summary: %v\n", err)
		os.Exit(1)
	}

	o := convnet.DefaultOptions()
	o.Method = convnet.Adadelta
	o.BatchSize = 4
	o.L2Decay = 0.001
	trainer, err := convnet.NewTrainer(network, o, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating trainer: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(42))
	trainX, trainY := generateBars(rng, 200, 8)
	testX, testY := generateBars(rng, 50, 8)

	fmt.Println("Training...")
	for epoch := 0; epoch < 20; epoch++ {
		totalLoss := 0.0
		for i := range trainX {
			stats, err := trainer.Train(trainX[i], convnet.ClassTarget(trainY[i]))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error training: %v\n", err)
				os.Exit(1)
			}
			totalLoss += stats.CostLoss
		}
		if epoch%5 == 0 {
			fmt.Printf("  Epoch %d, Loss: %.4f\n", epoch, totalLoss/float64(len(trainX)))
		}
	}

	correct := 0
	for i := range testX {
		network.Predict(testX[i])
		if p, _ := network.Prediction(); p == testY[i] {
			correct++
		}
	}
	fmt.Printf("Test accuracy: %.1f%%\n", float64(correct)/float64(len(testX))*100)
}

// generateBars draws size x size images holding one bright bar on a noisy
// background. Class 0 bars are horizontal, class 1 vertical.
func generateBars(rng *rand.Rand, n, size int) ([]*convnet.Tensor, []int) {
	xs := make([]*convnet.Tensor, n)
	ys := make([]int, n)
	for i := range xs {
		img := convnet.NewTensor(size, size, 1, 0)
		for j := range img.W {
			img.W[j] = rng.Float64() * 0.2
		}
		class := i % 2
		pos := rng.Intn(size)
		for k := 0; k < size; k++ {
			if class == 0 {
				img.Set(k, pos, 0, 1)
			} else {
				img.Set(pos, k, 0, 1)
			}
		}
		xs[i] = img
		ys[i] = class
	}
	return xs, ys
}
