// Package checkpoint loads PyTorch-format model checkpoints.
//
// A checkpoint file holds either a flat mapping from parameter name to
// tensor, or a wrapper mapping with the weights under "model_state_dict"
// and an optional training configuration under "config". Load resolves
// that branch once and returns a tagged Checkpoint, so callers never deal
// with the pickle object graph.
//
// Tensor data is decoded to float32 on load and re-encoded to its original
// element type (float32, float16, or bfloat16) when written out.
package checkpoint
