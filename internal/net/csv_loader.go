package net

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Dataset is a collection of feature rows with one class label each.
type Dataset struct {
	Samples [][]float64
	Labels  []int
}

// LoadCSV reads a dataset from CSV. labelCol selects the column holding
// the integer class label; a negative labelCol counts from the end, so -1
// is the last column. Every other column is a feature. hasHeader skips the
// first record.
func LoadCSV(r io.Reader, labelCol int, hasHeader bool) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, errors.New("csv has no data rows")
	}

	numCols := len(records[startRow])
	if labelCol < 0 {
		labelCol += numCols
	}
	if labelCol < 0 || labelCol >= numCols {
		return nil, fmt.Errorf("label column %d out of range for %d columns", labelCol, numCols)
	}

	d := &Dataset{
		Samples: make([][]float64, 0, len(records)-startRow),
		Labels:  make([]int, 0, len(records)-startRow),
	}
	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		sample := make([]float64, 0, numCols-1)
		for j, s := range record {
			val, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			if j != labelCol {
				sample = append(sample, val)
				continue
			}
			if val < 0 || val != math.Trunc(val) {
				return nil, fmt.Errorf("label at row %d is not a class index: %s", i, s)
			}
			d.Labels = append(d.Labels, int(val))
		}
		d.Samples = append(d.Samples, sample)
	}
	return d, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Samples) }

// NumClasses returns the largest label plus one.
func (d *Dataset) NumClasses() int {
	n := 0
	for _, l := range d.Labels {
		n = max(n, l+1)
	}
	return n
}

// Sample returns sample i as a tensor of the given shape, with its class
// target.
func (d *Dataset) Sample(i int, shape layer.Shape) (*tensor.Tensor, layer.Target, error) {
	row := d.Samples[i]
	if len(row) != shape.Len() {
		return nil, layer.Target{}, fmt.Errorf("sample %d has %d features, input %v needs %d",
			i, len(row), shape, shape.Len())
	}
	t := tensor.New(shape.Sx, shape.Sy, shape.Depth, 0)
	copy(t.W, row)
	return t, layer.ClassTarget(d.Labels[i]), nil
}

// Normalize performs min-max normalization of every feature to [0, 1].
// Constant features become 0.
func (d *Dataset) Normalize() {
	if len(d.Samples) == 0 {
		return
	}

	numFeatures := len(d.Samples[0])
	lo := make([]float64, numFeatures)
	hi := make([]float64, numFeatures)
	copy(lo, d.Samples[0])
	copy(hi, d.Samples[0])

	for _, sample := range d.Samples {
		for i, val := range sample {
			lo[i] = min(lo[i], val)
			hi[i] = max(hi[i], val)
		}
	}

	for _, sample := range d.Samples {
		for i := range sample {
			if diff := hi[i] - lo[i]; diff != 0 {
				sample[i] = (sample[i] - lo[i]) / diff
			} else {
				sample[i] = 0
			}
		}
	}
}

// Split splits the dataset into two based on the given ratio (0.0 to 1.0).
// Returns two new Datasets (train, test) sharing the underlying rows.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}

	splitIdx := int(float64(len(d.Samples)) * ratio)

	train := &Dataset{
		Samples: d.Samples[:splitIdx],
		Labels:  d.Labels[:splitIdx],
	}
	test := &Dataset{
		Samples: d.Samples[splitIdx:],
		Labels:  d.Labels[splitIdx:],
	}
	return train, test
}
