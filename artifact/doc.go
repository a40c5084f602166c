// Package artifact generates the upload payload for a model repository:
// config.json, model.safetensors, and README.md.
//
// The configuration document is an ordered key-value document merged from
// two fixed identity keys and the configuration extracted from the
// checkpoint. On a key collision the fixed identity keys win and the
// collision is logged. The weight file uses the safetensors layout; the
// model card is rendered from a template with a hub-standard YAML front
// matter block.
package artifact
