// Package template implements the generation.Engine interface with a
// deterministic canned plan. It is the default engine: the demo works
// offline and the pipeline output is reproducible.
package template

import (
	"context"
	"strings"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/generation"
)

// planSteps is the fixed tail of every templated response.
var planSteps = []string{
	"- Outline implementation steps:",
	"  1. Revisit previous decisions and conventions.",
	"  2. Update the architecture graph if the request introduces new components.",
	"  3. Ensure the result can be validated against project goals before finalizing.",
}

// TemplateEngine implements the generation.Engine interface by echoing
// the assembled context back with a fixed suggested plan.
type TemplateEngine struct{}

// NewTemplateEngine creates the deterministic template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{}
}

// Process implements the generation.Engine interface. The output is a
// pure function of the prompt.
func (*TemplateEngine) Process(ctx context.Context, prompt string, opts ...generation.Option) (string, error) {
	prompt = strings.TrimRight(prompt, "\n")
	if prompt == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	parts := make([]string, 0, 2+len(planSteps))
	parts = append(parts, prompt, "Suggested plan:")
	parts = append(parts, planSteps...)
	return strings.Join(parts, "\n"), nil
}

// GenerateEmbeddings implements the generation.Engine interface. The
// template engine has no embedding model.
func (*TemplateEngine) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.Wrap(errors.ErrInvalidInput, "template engine does not produce embeddings")
}
