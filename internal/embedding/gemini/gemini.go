// Package gemini embeds text with Google's generative language embedding models.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultModel is the embedding model the handbook index was built with.
const DefaultModel = "embedding-001"

// Config configures the Gemini embedder.
type Config struct {
	APIKey string
	Model  string
}

type embeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder calls the Gemini embedding API through langchaingo.
type Embedder struct {
	client embeddingClient
	model  string
}

// New creates a Gemini embedder. The API key is required.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &Embedder{client: client, model: cfg.Model}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini:" + e.model }

// Embed returns the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, errors.New("gemini embed: no embedding returned")
	}
	return vecs[0], nil
}
