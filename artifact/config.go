package artifact

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sort"

	json "github.com/goccy/go-json"
)

// Fixed identity keys stamped into every generated
// configuration.
const (
	// ArchitectureName is the model architecture tag.
	ArchitectureName = "HybridModel"
	// ModelType is the hub model type tag.
	ModelType = "hybrid_llm"
)

// Document is an ordered string-keyed JSON document.
// Keys keep their insertion order through serialization.
type Document struct {
	keys []string
	vals map[string]any
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		vals: make(map[string]any),
	}
}

// Set stores a value under key. A new key is appended;
// an existing key keeps its position.
func (d *Document) Set(key string, val any) {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.vals[key] = val
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.vals[key]

	return v, ok
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.vals[key]

	return ok
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	return d.keys
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// MarshalJSON serializes the document with keys in
// insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	const errCtx = "marshaling document"

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: key %q: %w", errCtx, key, err,
			)
		}

		vb, err := json.Marshal(d.vals[key])
		if err != nil {
			return nil, fmt.Errorf(
				"%s: value of %q: %w",
				errCtx, key, err,
			)
		}

		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalIndent serializes the document with two-space
// indentation.
func (d *Document) MarshalIndent() ([]byte, error) {
	const errCtx = "indenting document"

	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer

	if err := json.Indent(
		&out, b, "", "  ",
	); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return out.Bytes(), nil
}

// MergeConfig builds the model configuration document:
// the two fixed identity keys followed by the extracted
// checkpoint configuration in sorted key order. On a key
// collision the fixed identity value wins and a warning
// is logged.
func MergeConfig(extracted map[string]any) *Document {
	doc := NewDocument()
	doc.Set(
		"architectures", []string{ArchitectureName},
	)
	doc.Set("model_type", ModelType)

	keys := make([]string, 0, len(extracted))
	for k := range extracted {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		if doc.Has(k) {
			slog.Warn(
				"checkpoint config key collides with "+
					"fixed identity key, keeping fixed "+
					"value",
				"key", k,
			)

			continue
		}

		doc.Set(k, extracted[k])
	}

	return doc
}

// WriteConfig writes the document to path as indented
// JSON with a trailing newline.
func WriteConfig(path string, doc *Document) error {
	const errCtx = "writing config"

	b, err := doc.MarshalIndent()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	b = append(b, '\n')

	//nolint:gosec // mode 0644 is intentional
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
