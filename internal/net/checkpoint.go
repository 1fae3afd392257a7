package net

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/FlavioCFOliveira/GoConvNet/internal/layer"
	"github.com/FlavioCFOliveira/GoConvNet/internal/tensor"
)

// Binary checkpoints are the magic bytes followed by one protobuf-encoded
// message:
//
//	Network    { 1: version uint32; 2: repeated Descriptor }
//	Descriptor { 1: layer_type string; 2-13: ints; 14-20: doubles and n;
//	             21: repeated Tensor filters; 22: Tensor biases }
//	Tensor     { 1: sx; 2: sy; 3: depth; 4: packed double w }
const (
	CheckpointMagic   = "GCNV"
	CheckpointVersion = 1
)

// ErrBadCheckpoint is returned when binary checkpoint data cannot be decoded.
var ErrBadCheckpoint = errors.New("net: malformed checkpoint")

const (
	fieldNetVersion protowire.Number = 1
	fieldNetLayer   protowire.Number = 2
)

const (
	fieldLayerType protowire.Number = iota + 1
	fieldOutSx
	fieldOutSy
	fieldOutDepth
	fieldInSx
	fieldInSy
	fieldInDepth
	fieldSx
	fieldSy
	fieldStride
	fieldPad
	fieldNumInputs
	fieldGroupSize
	fieldL1DecayMul
	fieldL2DecayMul
	fieldDropProb
	fieldK
	fieldN
	fieldAlpha
	fieldBeta
	fieldFilters
	fieldBiases
)

const (
	fieldTensorSx protowire.Number = iota + 1
	fieldTensorSy
	fieldTensorDepth
	fieldTensorW
)

// MarshalBinary encodes the network as a binary checkpoint.
func (n *Network) MarshalBinary() ([]byte, error) {
	b := []byte(CheckpointMagic)
	b = appendInt(b, fieldNetVersion, CheckpointVersion)
	for _, d := range n.Descriptors() {
		b = appendMessage(b, fieldNetLayer, appendDescriptor(nil, d))
	}
	return b, nil
}

// UnmarshalBinary replaces n with the network encoded in data.
func (n *Network) UnmarshalBinary(data []byte) error {
	if !bytes.HasPrefix(data, []byte(CheckpointMagic)) {
		return fmt.Errorf("%w: missing magic", ErrBadCheckpoint)
	}

	var (
		version int
		ds      []layer.Descriptor
	)
	err := readFields(data[len(CheckpointMagic):], func(f wireField) error {
		switch f.num {
		case fieldNetVersion:
			return f.int(&version)
		case fieldNetLayer:
			if f.typ != protowire.BytesType {
				return f.typeError()
			}
			d, err := consumeDescriptor(f.bytes)
			if err != nil {
				return err
			}
			ds = append(ds, d)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if version != CheckpointVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadCheckpoint, version)
	}

	restored, err := FromDescriptors(ds, n.logger)
	if err != nil {
		return err
	}
	*n = *restored
	return nil
}

func appendDescriptor(b []byte, d layer.Descriptor) []byte {
	b = protowire.AppendTag(b, fieldLayerType, protowire.BytesType)
	b = protowire.AppendString(b, string(d.LayerType))

	b = appendInt(b, fieldOutSx, d.OutSx)
	b = appendInt(b, fieldOutSy, d.OutSy)
	b = appendInt(b, fieldOutDepth, d.OutDepth)
	b = appendInt(b, fieldInSx, d.InSx)
	b = appendInt(b, fieldInSy, d.InSy)
	b = appendInt(b, fieldInDepth, d.InDepth)
	b = appendInt(b, fieldSx, d.Sx)
	b = appendInt(b, fieldSy, d.Sy)
	b = appendInt(b, fieldStride, d.Stride)
	b = appendInt(b, fieldPad, d.Pad)
	b = appendInt(b, fieldNumInputs, d.NumInputs)
	b = appendInt(b, fieldGroupSize, d.GroupSize)
	b = appendFloat(b, fieldL1DecayMul, d.L1DecayMul)
	b = appendFloat(b, fieldL2DecayMul, d.L2DecayMul)
	b = appendFloat(b, fieldDropProb, d.DropProb)
	b = appendFloat(b, fieldK, d.K)
	b = appendInt(b, fieldN, d.N)
	b = appendFloat(b, fieldAlpha, d.Alpha)
	b = appendFloat(b, fieldBeta, d.Beta)

	for _, f := range d.Filters {
		b = appendMessage(b, fieldFilters, appendTensor(nil, f))
	}
	if d.Biases != nil {
		b = appendMessage(b, fieldBiases, appendTensor(nil, d.Biases))
	}
	return b
}

func consumeDescriptor(b []byte) (layer.Descriptor, error) {
	var d layer.Descriptor
	err := readFields(b, func(f wireField) error {
		switch f.num {
		case fieldLayerType:
			if f.typ != protowire.BytesType {
				return f.typeError()
			}
			d.LayerType = layer.Type(f.bytes)
		case fieldOutSx:
			return f.int(&d.OutSx)
		case fieldOutSy:
			return f.int(&d.OutSy)
		case fieldOutDepth:
			return f.int(&d.OutDepth)
		case fieldInSx:
			return f.int(&d.InSx)
		case fieldInSy:
			return f.int(&d.InSy)
		case fieldInDepth:
			return f.int(&d.InDepth)
		case fieldSx:
			return f.int(&d.Sx)
		case fieldSy:
			return f.int(&d.Sy)
		case fieldStride:
			return f.int(&d.Stride)
		case fieldPad:
			return f.int(&d.Pad)
		case fieldNumInputs:
			return f.int(&d.NumInputs)
		case fieldGroupSize:
			return f.int(&d.GroupSize)
		case fieldL1DecayMul:
			return f.float(&d.L1DecayMul)
		case fieldL2DecayMul:
			return f.float(&d.L2DecayMul)
		case fieldDropProb:
			return f.float(&d.DropProb)
		case fieldK:
			return f.float(&d.K)
		case fieldN:
			return f.int(&d.N)
		case fieldAlpha:
			return f.float(&d.Alpha)
		case fieldBeta:
			return f.float(&d.Beta)
		case fieldFilters, fieldBiases:
			if f.typ != protowire.BytesType {
				return f.typeError()
			}
			t, err := consumeTensor(f.bytes)
			if err != nil {
				return err
			}
			if f.num == fieldBiases {
				d.Biases = t
			} else {
				d.Filters = append(d.Filters, t)
			}
		}
		return nil
	})
	return d, err
}

func appendTensor(b []byte, t *tensor.Tensor) []byte {
	b = appendInt(b, fieldTensorSx, t.Sx)
	b = appendInt(b, fieldTensorSy, t.Sy)
	b = appendInt(b, fieldTensorDepth, t.Depth)
	if len(t.W) == 0 {
		return b
	}
	b = protowire.AppendTag(b, fieldTensorW, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(8*len(t.W)))
	for _, v := range t.W {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

func consumeTensor(b []byte) (*tensor.Tensor, error) {
	var (
		sx, sy, depth int
		w             []float64
	)
	err := readFields(b, func(f wireField) error {
		switch f.num {
		case fieldTensorSx:
			return f.int(&sx)
		case fieldTensorSy:
			return f.int(&sy)
		case fieldTensorDepth:
			return f.int(&depth)
		case fieldTensorW:
			if f.typ != protowire.BytesType || len(f.bytes)%8 != 0 {
				return f.typeError()
			}
			w = make([]float64, 0, len(f.bytes)/8)
			for p := f.bytes; len(p) > 0; {
				v, n := protowire.ConsumeFixed64(p)
				if n < 0 {
					return protowire.ParseError(n)
				}
				w = append(w, math.Float64frombits(v))
				p = p[n:]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, v := range []int{sx, sy, depth} {
		if v < 0 || v > maxDim {
			return nil, fmt.Errorf("%w: tensor dimension %d out of range", ErrBadCheckpoint, v)
		}
	}
	if !withinElems(sx, sy, depth) {
		return nil, fmt.Errorf("%w: tensor %dx%dx%d too large", ErrBadCheckpoint, sx, sy, depth)
	}

	t := new(tensor.Tensor)
	if err := t.Reset(sx, sy, depth, w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCheckpoint, err)
	}
	return t, nil
}

// wireField is one decoded field of a protobuf message.
type wireField struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	fixed  uint64
	bytes  []byte
}

func (f wireField) typeError() error {
	return fmt.Errorf("%w: unexpected wire type %d for field %d", ErrBadCheckpoint, f.typ, f.num)
}

func (f wireField) int(dst *int) error {
	if f.typ != protowire.VarintType {
		return f.typeError()
	}
	*dst = int(int64(f.varint))
	return nil
}

func (f wireField) float(dst *float64) error {
	if f.typ != protowire.Fixed64Type {
		return f.typeError()
	}
	*dst = math.Float64frombits(f.fixed)
	return nil
}

// readFields calls fn for every field of the message in b. Groups and
// 32-bit fields are skipped.
func readFields(b []byte, fn func(wireField) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrBadCheckpoint, protowire.ParseError(n))
		}
		b = b[n:]

		f := wireField{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.fixed, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrBadCheckpoint, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func appendInt(b []byte, num protowire.Number, v int) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
