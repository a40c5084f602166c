package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/model_uploader/checkpoint"
)

// tensorHeader mirrors the per-tensor entry of a
// safetensors file header.
type tensorHeader struct {
	Dtype   string    `json:"dtype"`
	Shape   []uint64  `json:"shape"`
	Offsets [2]uint64 `json:"data_offsets"`
}

// WriteSafetensors writes tensors in safetensors layout:
// an 8-byte little-endian header length, the JSON header,
// then the raw tensor data in header order. Tensors are
// written in the order given; the loader already sorts
// them by name.
func WriteSafetensors(
	w io.Writer,
	tensors []checkpoint.Tensor,
) error {
	const errCtx = "writing safetensors"

	hdr, err := buildHeader(tensors)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := binary.Write(
		w, binary.LittleEndian, uint64(len(hdr)),
	); err != nil {
		return fmt.Errorf(
			"%s: header length: %w", errCtx, err,
		)
	}

	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf(
			"%s: header: %w", errCtx, err,
		)
	}

	for _, t := range tensors {
		if _, err := t.WriteTo(w); err != nil {
			return fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	return nil
}

// SaveSafetensors writes tensors to a file at path.
func SaveSafetensors(
	path string,
	tensors []checkpoint.Tensor,
) (retErr error) {
	const errCtx = "saving safetensors"

	fi, err := os.Create(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf(
				"%s: %w", errCtx, closeErr,
			)
		}
	}()

	if err := WriteSafetensors(fi, tensors); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// buildHeader serializes the safetensors JSON header with
// the metadata entry first and tensors in given order.
func buildHeader(
	tensors []checkpoint.Tensor,
) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(
		`{"__metadata__":{"format":"pt"}`,
	)

	seen := make(map[string]struct{}, len(tensors))

	var off uint64

	for _, t := range tensors {
		if _, ok := seen[t.Name()]; ok {
			return nil, fmt.Errorf(
				"duplicate tensor name %q", t.Name(),
			)
		}

		seen[t.Name()] = struct{}{}

		shape := t.Shape()
		if shape == nil {
			shape = []uint64{}
		}

		entry := tensorHeader{
			Dtype: string(t.Dtype()),
			Shape: shape,
			Offsets: [2]uint64{
				off, off + t.ByteSize(),
			},
		}

		kb, err := json.Marshal(t.Name())
		if err != nil {
			return nil, fmt.Errorf(
				"marshal name %q: %w", t.Name(), err,
			)
		}

		vb, err := json.Marshal(&entry)
		if err != nil {
			return nil, fmt.Errorf(
				"marshal header of %q: %w",
				t.Name(), err,
			)
		}

		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)

		off += t.ByteSize()
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
