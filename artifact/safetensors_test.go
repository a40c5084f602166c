package artifact_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/model_uploader/artifact"
	"github.com/byte4ever/model_uploader/checkpoint"
)

type stEntry struct {
	Dtype   string    `json:"dtype"`
	Shape   []uint64  `json:"shape"`
	Offsets [2]uint64 `json:"data_offsets"`
}

// parseSafetensors splits a serialized safetensors blob
// into its JSON header and raw data section.
func parseSafetensors(
	t *testing.T,
	b []byte,
) (map[string]json.RawMessage, []byte) {
	t.Helper()

	require.GreaterOrEqual(t, len(b), 8)

	n := binary.LittleEndian.Uint64(b[:8])
	require.LessOrEqual(t, 8+n, uint64(len(b)))

	var hdr map[string]json.RawMessage
	require.NoError(
		t, json.Unmarshal(b[8:8+n], &hdr),
	)

	return hdr, b[8+n:]
}

func TestWriteSafetensors(t *testing.T) {
	t.Parallel()

	tensors := []checkpoint.Tensor{
		checkpoint.NewTensor(
			"layer.bias", []uint64{2},
			checkpoint.DtypeF32,
			[]float32{1, 2},
		),
		checkpoint.NewTensor(
			"layer.weight", []uint64{2, 2},
			checkpoint.DtypeF16,
			[]float32{1, 2, 3, 4},
		),
	}

	var buf bytes.Buffer

	require.NoError(
		t,
		artifact.WriteSafetensors(&buf, tensors),
	)

	hdr, data := parseSafetensors(t, buf.Bytes())

	var meta map[string]string
	require.NoError(
		t,
		json.Unmarshal(hdr["__metadata__"], &meta),
	)
	assert.Equal(t, "pt", meta["format"])

	var bias stEntry
	require.NoError(
		t, json.Unmarshal(hdr["layer.bias"], &bias),
	)
	assert.Equal(t, "F32", bias.Dtype)
	assert.Equal(t, []uint64{2}, bias.Shape)
	assert.Equal(t, [2]uint64{0, 8}, bias.Offsets)

	var weight stEntry
	require.NoError(
		t,
		json.Unmarshal(hdr["layer.weight"], &weight),
	)
	assert.Equal(t, "F16", weight.Dtype)
	assert.Equal(t, []uint64{2, 2}, weight.Shape)
	assert.Equal(t, [2]uint64{8, 16}, weight.Offsets)

	assert.Len(t, data, 16)

	got := make([]float32, 2)
	require.NoError(t, binary.Read(
		bytes.NewReader(data[:8]),
		binary.LittleEndian,
		got,
	))
	assert.Equal(t, []float32{1, 2}, got)
}

func TestWriteSafetensors_scalarShape(t *testing.T) {
	t.Parallel()

	tensors := []checkpoint.Tensor{
		checkpoint.NewTensor(
			"step", nil,
			checkpoint.DtypeF32,
			[]float32{7},
		),
	}

	var buf bytes.Buffer

	require.NoError(
		t,
		artifact.WriteSafetensors(&buf, tensors),
	)

	hdr, _ := parseSafetensors(t, buf.Bytes())

	var entry stEntry
	require.NoError(
		t, json.Unmarshal(hdr["step"], &entry),
	)
	assert.NotNil(t, entry.Shape)
	assert.Empty(t, entry.Shape)
	assert.Equal(t, [2]uint64{0, 4}, entry.Offsets)
}

func TestWriteSafetensors_duplicateName(t *testing.T) {
	t.Parallel()

	tensors := []checkpoint.Tensor{
		checkpoint.NewTensor(
			"w", []uint64{1},
			checkpoint.DtypeF32, []float32{1},
		),
		checkpoint.NewTensor(
			"w", []uint64{1},
			checkpoint.DtypeF32, []float32{2},
		),
	}

	var buf bytes.Buffer

	err := artifact.WriteSafetensors(&buf, tensors)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
