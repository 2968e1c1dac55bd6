package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultGeminiModel is the Gemini model used when none is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGemini creates a generator backed by Google's Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*LLMGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return NewLLMGenerator(llm, "gemini:"+cfg.Model), nil
}
