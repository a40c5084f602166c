package artifact

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/valyala/fasttemplate"
)

// frontMatter mirrors the hub model card metadata block.
type frontMatter struct {
	LibraryName string   `yaml:"library_name"`
	PipelineTag string   `yaml:"pipeline_tag"`
	Tags        []string `yaml:"tags"`
}

const cardTemplate = `# {{model_name}}

This is a hybrid transformer-Mamba model uploaded with model_uploader.

## Model Details

- **Architecture**: Hybrid Transformer-Mamba
- **Parameters**: {{param_count}}
- **Config**:

` + "```json\n{{config}}\n```" + `

## Usage

` + "```python\n" +
	`from transformers import AutoModelForCausalLM

model = AutoModelForCausalLM.from_pretrained("{{repo_id}}")
` + "```\n"

// RenderModelCard produces the README.md content for an
// uploaded model: YAML front matter, the display name,
// the formatted parameter count, the configuration dump,
// and a usage snippet referencing the repository id.
func RenderModelCard(
	repoID string,
	modelName string,
	doc *Document,
	paramCount uint64,
) (string, error) {
	const errCtx = "rendering model card"

	fm, err := yaml.Marshal(frontMatter{
		LibraryName: "transformers",
		PipelineTag: "text-generation",
		Tags:        []string{"pytorch", "hybrid"},
	})
	if err != nil {
		return "", fmt.Errorf(
			"%s: front matter: %w", errCtx, err,
		)
	}

	cfg, err := doc.MarshalIndent()
	if err != nil {
		return "", fmt.Errorf(
			"%s: config dump: %w", errCtx, err,
		)
	}

	body := fasttemplate.ExecuteStringStd(
		cardTemplate, "{{", "}}",
		map[string]interface{}{
			"model_name":  modelName,
			"param_count": FormatCount(paramCount),
			"config":      string(cfg),
			"repo_id":     repoID,
		},
	)

	return "---\n" + string(fm) + "---\n\n" + body,
		nil
}

// FormatCount renders n with thousands separators
// (e.g. 1,234,567).
func FormatCount(n uint64) string {
	s := strconv.FormatUint(n, 10)

	if len(s) <= 3 {
		return s
	}

	first := len(s) % 3
	if first == 0 {
		first = 3
	}

	out := s[:first]
	for i := first; i < len(s); i += 3 {
		out += "," + s[i:i+3]
	}

	return out
}
