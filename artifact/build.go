package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/byte4ever/model_uploader/checkpoint"
)

// File names of the generated payload.
const (
	ConfigFileName  = "config.json"
	WeightsFileName = "model.safetensors"
	ReadmeFileName  = "README.md"
)

// WritePayload generates the three upload artifacts in
// dir and returns their base names in generation order.
func WritePayload(
	dir string,
	ckpt *checkpoint.Checkpoint,
	repoID string,
	modelName string,
) ([]string, error) {
	const errCtx = "writing payload"

	doc := MergeConfig(ckpt.Config)

	if err := WriteConfig(
		filepath.Join(dir, ConfigFileName), doc,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := SaveSafetensors(
		filepath.Join(dir, WeightsFileName),
		ckpt.Tensors,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	card, err := RenderModelCard(
		repoID, modelName, doc,
		ckpt.ParameterCount(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	//nolint:gosec // mode 0644 is intentional
	if err := os.WriteFile(
		filepath.Join(dir, ReadmeFileName),
		[]byte(card), 0o644,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: model card: %w", errCtx, err,
		)
	}

	return []string{
		ConfigFileName,
		WeightsFileName,
		ReadmeFileName,
	}, nil
}
