package generation

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// Default values for OpenAI-compatible servers.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIConfig configures an OpenAI-compatible chat completion backend,
// which also covers Ollama's /v1 endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewOpenAI creates a generator backed by an OpenAI-compatible API.
func NewOpenAI(cfg OpenAIConfig) (*LLMGenerator, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.APIKey == "" {
		// The client refuses an empty token; local servers ignore it.
		cfg.APIKey = "unused"
	}
	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai: creating client: %w", err)
	}
	return NewLLMGenerator(llm, "openai:"+cfg.Model), nil
}
