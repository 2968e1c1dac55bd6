package domain

import "context"

// Match is one nearest-neighbour hit returned by the vector index.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Text returns the passage text stored in the match metadata under "text".
func (m Match) Text() (string, bool) {
	if m.Metadata == nil {
		return "", false
	}
	s, ok := m.Metadata["text"].(string)
	return s, ok
}

// Source is a citation returned to the caller alongside an answer.
type Source struct {
	ID        int     `json:"id"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
	Relevance int     `json:"relevance"`
}

// Answer is the response payload of a single handbook question.
type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence int      `json:"confidence"`
}

// GenerateOptions carries the generation config sent with a prompt.
type GenerateOptions struct {
	Temperature float64
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns the topK nearest stored vectors, with metadata.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Asker defines the operation exposed by the application core.
type Asker interface {
	Answer(ctx context.Context, question string) (*Answer, error)
}
