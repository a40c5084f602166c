package checkpoint

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Dtype identifies the element type of a tensor, using
// safetensors dtype names.
type Dtype string

// Supported element types.
const (
	DtypeF32  Dtype = "F32"
	DtypeF16  Dtype = "F16"
	DtypeBF16 Dtype = "BF16"
)

// ByteSize returns the width of one element in bytes.
func (d Dtype) ByteSize() uint64 {
	switch d {
	case DtypeF32:
		return 4
	case DtypeF16, DtypeBF16:
		return 2
	default:
		return 0
	}
}

// Tensor is a named weight with its shape, element type,
// and data held as float32.
type Tensor struct {
	name  string
	shape []uint64
	dtype Dtype
	f32s  []float32
}

// NewTensor builds a tensor from already-decoded float32
// data. The data length must match the shape's element
// count; this is not re-checked here.
func NewTensor(
	name string,
	shape []uint64,
	dtype Dtype,
	data []float32,
) Tensor {
	return Tensor{
		name:  name,
		shape: shape,
		dtype: dtype,
		f32s:  data,
	}
}

// Name returns the parameter name.
func (t Tensor) Name() string { return t.name }

// Shape returns the tensor dimensions.
func (t Tensor) Shape() []uint64 { return t.shape }

// Dtype returns the element type.
func (t Tensor) Dtype() Dtype { return t.dtype }

// Elements returns the number of elements in the tensor.
// A zero-dimensional scalar counts as one element.
func (t Tensor) Elements() uint64 {
	return elements(t.shape)
}

// ByteSize returns the encoded size of the tensor data.
func (t Tensor) ByteSize() uint64 {
	return t.Elements() * t.dtype.ByteSize()
}

// WriteTo encodes the tensor data back to its element
// type and writes it little-endian.
func (t Tensor) WriteTo(w io.Writer) (int64, error) {
	const errCtx = "writing tensor"

	n := int64(t.ByteSize())

	switch t.dtype {
	case DtypeF32:
		if err := binary.Write(
			w, binary.LittleEndian, t.f32s,
		); err != nil {
			return 0, fmt.Errorf(
				"%s %s: %w", errCtx, t.name, err,
			)
		}

		return n, nil

	case DtypeF16:
		f16s := make([]uint16, len(t.f32s))
		for i := range t.f32s {
			f16s[i] = float16.Fromfloat32(t.f32s[i]).Bits()
		}

		if err := binary.Write(
			w, binary.LittleEndian, f16s,
		); err != nil {
			return 0, fmt.Errorf(
				"%s %s: %w", errCtx, t.name, err,
			)
		}

		return n, nil

	case DtypeBF16:
		if _, err := w.Write(
			bfloat16.EncodeFloat32(t.f32s),
		); err != nil {
			return 0, fmt.Errorf(
				"%s %s: %w", errCtx, t.name, err,
			)
		}

		return n, nil

	default:
		return 0, fmt.Errorf(
			"%s %s: unknown dtype %q",
			errCtx, t.name, t.dtype,
		)
	}
}

// elements returns the product of the dimensions. An
// empty shape (scalar) yields one.
func elements(shape []uint64) uint64 {
	n := uint64(1)
	for _, dim := range shape {
		n *= dim
	}

	return n
}
