package net

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/FlavioCFOliveira/GoConvNet/internal/opt"
)

// StatsLogger writes one CSV row per training step.
type StatsLogger struct {
	writer      *csv.Writer
	wroteHeader bool
}

// NewStatsLogger creates a StatsLogger writing to w.
func NewStatsLogger(w io.Writer) *StatsLogger {
	return &StatsLogger{writer: csv.NewWriter(w)}
}

// Log records the stats of training step step. The header is written before
// the first row.
func (l *StatsLogger) Log(step int, s opt.Stats) error {
	if !l.wroteHeader {
		header := []string{"step", "cost_loss", "l1_decay_loss", "l2_decay_loss", "loss", "fwd_us", "bwd_us"}
		if err := l.writer.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		l.wroteHeader = true
	}

	record := []string{
		strconv.Itoa(step),
		fmt.Sprintf("%.6f", s.CostLoss),
		fmt.Sprintf("%.6f", s.L1DecayLoss),
		fmt.Sprintf("%.6f", s.L2DecayLoss),
		fmt.Sprintf("%.6f", s.Loss),
		strconv.FormatInt(s.FwdTime.Microseconds(), 10),
		strconv.FormatInt(s.BwdTime.Microseconds(), 10),
	}
	if err := l.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Flush writes any buffered rows to the underlying writer.
func (l *StatsLogger) Flush() error {
	l.writer.Flush()
	return l.writer.Error()
}
