package main

import (
	"fmt"
	"math"
	"os"

	"github.com/FlavioCFOliveira/GoConvNet/convnet"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// XOR cannot be solved by a single-layer perceptron, so the fc layer
	// carries a tanh nonlinearity in front of the softmax classifier.
	defs := []convnet.Def{
		{Type: convnet.Input, OutDepth: 2},
		{Type: convnet.FC, NumNeurons: 6, Activation: "tanh"},
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
	trainer, err := convnet.NewTrainer(network, o, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating trainer: %v\n", err)
		os.Exit(1)
	}

	trainX := [][]float64{
		{0, 0},
		{0, 1},
		{1, 0},
		{1, 1},
	}
	trainY := []int{0, 1, 1, 0}

	for epoch := 0; epoch < 2000; epoch++ {
		totalLoss := 0.0
		for i := range trainX {
			stats, err := trainer.Train(convnet.FromSlice(trainX[i]), convnet.ClassTarget(trainY[i]))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error training: %v\n", err)
				os.Exit(1)
			}
			totalLoss += stats.Loss
		}
		if epoch%200 == 0 {
			fmt.Printf("Epoch %d, Loss: %.6f\n", epoch, totalLoss/float64(len(trainX)))
		}
	}

	fmt.Println("\nTesting trained network:")
	for i := range trainX {
		probs := network.Predict(convnet.FromSlice(trainX[i]))
		pred, _ := network.Prediction()
		fmt.Printf("Input: %v, Predicted: %d (p=%.4f), Target: %d\n",
			trainX[i], pred, probs.W[pred], trainY[i])
	}

	const path = "xor_network.bin"
	fmt.Println("\nSaving network to disk...")
	if err := network.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving network: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(path)

	loaded, err := convnet.LoadNetwork(path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading network: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nVerifying loaded network:")
	allMatch := true
	for i := range trainX {
		want := network.Predict(convnet.FromSlice(trainX[i])).W
		got := loaded.Predict(convnet.FromSlice(trainX[i])).W
		match := "OK"
		for j := range want {
			if math.Abs(want[j]-got[j]) > 1e-12 {
				match = "MISMATCH"
				allMatch = false
			}
		}
		fmt.Printf("Input: %v, Original: %.4f, Loaded: %.4f [%s]\n", trainX[i], want[1], got[1], match)
	}

	if !allMatch {
		fmt.Println("\nFAILURE: Predictions differ between original and loaded network!")
		os.Exit(1)
	}
	fmt.Println("\nSUCCESS: All predictions match between original and loaded network!")
}
