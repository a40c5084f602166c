package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/model_uploader/checkpoint"
)

// torchTensor builds an in-memory gopickle tensor the way
// pytorch.Load materialises one.
func torchTensor(
	shape []int,
	data []float32,
) *pytorch.Tensor {
	return &pytorch.Tensor{
		Size: shape,
		Source: &pytorch.FloatStorage{
			Data: data,
		},
	}
}

func TestFromObject_raw(t *testing.T) {
	t.Parallel()

	d := types.NewDict()
	d.Set(
		"layer.bias",
		torchTensor([]int{2}, []float32{1, 2}),
	)
	d.Set(
		"layer.weight",
		torchTensor(
			[]int{2, 2}, []float32{1, 2, 3, 4},
		),
	)

	ckpt, err := checkpoint.FromObject(d)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.KindRaw, ckpt.Kind)
	assert.Nil(t, ckpt.Config)

	require.Len(t, ckpt.Tensors, 2)
	// Sorted by name.
	assert.Equal(
		t, "layer.bias", ckpt.Tensors[0].Name(),
	)
	assert.Equal(
		t, "layer.weight", ckpt.Tensors[1].Name(),
	)

	assert.Equal(
		t, uint64(6), ckpt.ParameterCount(),
	)
}

func TestFromObject_wrapped(t *testing.T) {
	t.Parallel()

	state := types.NewDict()
	state.Set(
		"w",
		torchTensor([]int{3}, []float32{1, 2, 3}),
	)

	cfg := types.NewDict()
	cfg.Set("hidden_size", 64)
	cfg.Set("model_name", "tiny")

	d := types.NewDict()
	d.Set("model_state_dict", state)
	d.Set("config", cfg)

	ckpt, err := checkpoint.FromObject(d)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.KindWrapped, ckpt.Kind)
	require.Len(t, ckpt.Tensors, 1)
	assert.Equal(
		t, uint64(3), ckpt.ParameterCount(),
	)

	require.NotNil(t, ckpt.Config)
	assert.Equal(t, 64, ckpt.Config["hidden_size"])
	assert.Equal(t, "tiny", ckpt.Config["model_name"])
}

func TestFromObject_wrapped_without_config(t *testing.T) {
	t.Parallel()

	state := types.NewDict()
	state.Set(
		"w", torchTensor([]int{1}, []float32{1}),
	)

	d := types.NewDict()
	d.Set("model_state_dict", state)

	ckpt, err := checkpoint.FromObject(d)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.KindWrapped, ckpt.Kind)
	assert.Nil(t, ckpt.Config)
}

func TestFromObject_nested_config_values(t *testing.T) {
	t.Parallel()

	sizes := types.NewList()
	sizes.Append(128)
	sizes.Append(256)

	cfg := types.NewDict()
	cfg.Set("layer_sizes", sizes)

	state := types.NewDict()
	state.Set(
		"w", torchTensor([]int{1}, []float32{1}),
	)

	d := types.NewDict()
	d.Set("model_state_dict", state)
	d.Set("config", cfg)

	ckpt, err := checkpoint.FromObject(d)
	require.NoError(t, err)

	assert.Equal(
		t,
		[]any{128, 256},
		ckpt.Config["layer_sizes"],
	)
}

func TestFromObject_non_tensor_entry(t *testing.T) {
	t.Parallel()

	d := types.NewDict()
	d.Set("epoch", 7)

	_, err := checkpoint.FromObject(d)

	assert.Error(t, err)
}

func TestFromObject_not_a_mapping(t *testing.T) {
	t.Parallel()

	_, err := checkpoint.FromObject("nope")

	assert.Error(t, err)
}

func TestLoad_missing_file(t *testing.T) {
	t.Parallel()

	_, err := checkpoint.Load(
		filepath.Join(t.TempDir(), "missing.pt"),
	)

	assert.Error(t, err)
}
