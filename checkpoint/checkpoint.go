package checkpoint

import (
	"fmt"
	"sort"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
)

// Wrapper mapping keys written by common training loops.
const (
	stateDictKey = "model_state_dict"
	configKey    = "config"
)

// Kind tags the two checkpoint layouts found on disk.
type Kind int

// Checkpoint layouts.
const (
	// KindRaw is a flat parameter-name to tensor
	// mapping.
	KindRaw Kind = iota
	// KindWrapped is a wrapper mapping holding the
	// weights under "model_state_dict" plus an
	// optional "config" mapping.
	KindWrapped
)

// Checkpoint is a loaded model checkpoint. The flat
// versus wrapper branch is resolved once at load time.
type Checkpoint struct {
	// Kind records which layout the file used.
	Kind Kind
	// Tensors holds the weights, sorted by name.
	Tensors []Tensor
	// Config is the extracted training configuration.
	// Nil unless the checkpoint was wrapped and
	// carried one.
	Config map[string]any
}

// Load reads a PyTorch pickle checkpoint from path.
func Load(path string) (*Checkpoint, error) {
	const errCtx = "loading checkpoint"

	obj, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	ckpt, err := FromObject(obj)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return ckpt, nil
}

// FromObject resolves an unpickled checkpoint object into
// a tagged Checkpoint. A mapping with a
// "model_state_dict" entry is treated as a wrapper;
// anything else must be a flat weight mapping.
func FromObject(obj any) (*Checkpoint, error) {
	const errCtx = "resolving checkpoint layout"

	if state, ok := dictGet(obj, stateDictKey); ok {
		tensors, err := tensorsFromDict(state)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: state dict: %w", errCtx, err,
			)
		}

		var cfg map[string]any

		if rawCfg, ok := dictGet(obj, configKey); ok {
			m, ok := toPlain(rawCfg).(map[string]any)
			if !ok {
				return nil, fmt.Errorf(
					"%s: config entry is not a mapping",
					errCtx,
				)
			}

			cfg = m
		}

		return &Checkpoint{
			Kind:    KindWrapped,
			Tensors: tensors,
			Config:  cfg,
		}, nil
	}

	tensors, err := tensorsFromDict(obj)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return &Checkpoint{
		Kind:    KindRaw,
		Tensors: tensors,
	}, nil
}

// ParameterCount returns the sum of element counts across
// all tensors.
func (c *Checkpoint) ParameterCount() uint64 {
	var n uint64
	for _, t := range c.Tensors {
		n += t.Elements()
	}

	return n
}

// tensorsFromDict converts a pickle mapping of name to
// torch tensor into Tensors sorted by name.
func tensorsFromDict(obj any) ([]Tensor, error) {
	entries, ok := dictEntries(obj)
	if !ok {
		return nil, fmt.Errorf(
			"weights are %T, not a mapping", obj,
		)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	sort.Strings(names)

	tensors := make([]Tensor, 0, len(names))

	for _, name := range names {
		pt, ok := entries[name].(*pytorch.Tensor)
		if !ok {
			return nil, fmt.Errorf(
				"entry %q is %T, not a tensor",
				name, entries[name],
			)
		}

		t, err := fromPytorch(name, pt)
		if err != nil {
			return nil, err
		}

		tensors = append(tensors, t)
	}

	return tensors, nil
}

// fromPytorch converts a gopickle torch tensor into a
// Tensor, decoding its storage to float32.
func fromPytorch(
	name string,
	t *pytorch.Tensor,
) (Tensor, error) {
	shape := make([]uint64, 0, len(t.Size))
	for _, dim := range t.Size {
		shape = append(shape, uint64(dim))
	}

	var (
		dtype Dtype
		f32s  []float32
	)

	switch s := t.Source.(type) {
	case *pytorch.FloatStorage:
		dtype, f32s = DtypeF32, s.Data
	case *pytorch.HalfStorage:
		dtype, f32s = DtypeF16, s.Data
	case *pytorch.BFloat16Storage:
		dtype, f32s = DtypeBF16, s.Data
	case *pytorch.DoubleStorage:
		// Doubles are narrowed; safetensors carries
		// them as F32.
		f32s = make([]float32, len(s.Data))
		for i, v := range s.Data {
			f32s[i] = float32(v)
		}

		dtype = DtypeF32
	default:
		return Tensor{}, fmt.Errorf(
			"tensor %q: unsupported storage type %T",
			name, s,
		)
	}

	n := elements(shape)
	off := t.StorageOffset

	switch {
	case off >= 0 && uint64(off)+n <= uint64(len(f32s)):
		f32s = f32s[off : uint64(off)+n]
	case uint64(len(f32s)) == n:
		// Offset out of range but the storage holds
		// exactly this tensor.
	default:
		return Tensor{}, fmt.Errorf(
			"tensor %q: storage holds %d elements, want %d",
			name, len(f32s), n,
		)
	}

	return NewTensor(name, shape, dtype, f32s), nil
}

// dictGet looks up a string key in either pickle dict
// flavour.
func dictGet(obj any, key string) (any, bool) {
	switch d := obj.(type) {
	case *types.Dict:
		return d.Get(key)
	case *types.OrderedDict:
		return d.Get(key)
	default:
		return nil, false
	}
}

// dictEntries flattens either pickle dict flavour into a
// Go map, keeping only string keys.
func dictEntries(obj any) (map[string]any, bool) {
	out := make(map[string]any)

	switch d := obj.(type) {
	case *types.Dict:
		for _, k := range d.Keys() {
			name, ok := k.(string)
			if !ok {
				continue
			}

			out[name] = d.MustGet(k)
		}
	case *types.OrderedDict:
		for k, e := range d.Map {
			name, ok := k.(string)
			if !ok {
				continue
			}

			out[name] = e.Value
		}
	default:
		return nil, false
	}

	return out, true
}

// toPlain converts pickle container values into plain Go
// values suitable for JSON serialization. Unknown types
// degrade to their string form.
func toPlain(v any) any {
	switch x := v.(type) {
	case nil, bool, string,
		int, int64, float32, float64:
		return x
	case *types.Dict, *types.OrderedDict:
		entries, _ := dictEntries(x)

		out := make(map[string]any, len(entries))
		for k, vv := range entries {
			out[k] = toPlain(vv)
		}

		return out
	case *types.List:
		out := make([]any, x.Len())
		for i := range out {
			out[i] = toPlain(x.Get(i))
		}

		return out
	case *types.Tuple:
		out := make([]any, x.Len())
		for i := range out {
			out[i] = toPlain(x.Get(i))
		}

		return out
	default:
		return fmt.Sprintf("%v", x)
	}
}
