package net

import (
	"fmt"
	"io"
	"strings"
)

// Summary writes a table of the layers, their output shapes and their
// parameter counts to w.
func (n *Network) Summary(w io.Writer) error {
	rule := strings.Repeat("_", 65)
	double := strings.Repeat("=", 65)

	var b strings.Builder
	fmt.Fprintln(&b, "Model: Network")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(&b, double)

	total := 0
	for i, l := range n.layers {
		params := 0
		for _, g := range l.ParamsAndGrads() {
			params += len(g.Params)
		}
		total += params

		s := l.OutShape()
		fmt.Fprintf(&b, "%-25s %-20s %-10d\n",
			fmt.Sprintf("%s_%d", l.Type(), i),
			fmt.Sprintf("(%d, %d, %d)", s.Sx, s.Sy, s.Depth),
			params)
	}
	fmt.Fprintln(&b, double)
	fmt.Fprintf(&b, "Total params: %d\n", total)
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}
