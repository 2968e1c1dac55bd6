// Package generation adapts langchaingo language models to the handbook
// answer generator.
package generation

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"handbookbot/internal/domain"
)

// LLMGenerator generates answers with any langchaingo model.
type LLMGenerator struct {
	llm  llms.Model
	name string
}

var _ domain.Generator = (*LLMGenerator)(nil)

// NewLLMGenerator wraps an already constructed langchaingo model.
func NewLLMGenerator(llm llms.Model, name string) *LLMGenerator {
	return &LLMGenerator{llm: llm, name: name}
}

// Name identifies the backing model.
func (g *LLMGenerator) Name() string { return g.name }

// Generate sends prompt as a single user turn with the given temperature.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", g.name, err)
	}
	return text, nil
}
