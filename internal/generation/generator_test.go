package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"handbookbot/internal/domain"
)

// fakeModel records the last call and returns a canned completion.
type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLLMGenerator_Generate(t *testing.T) {
	m := &fakeModel{reply: "- 15 days of PTO"}
	g := NewLLMGenerator(m, "fake")

	out, err := g.Generate(context.Background(), "PROMPT", domain.GenerateOptions{Temperature: 0.3})

	require.NoError(t, err)
	assert.Equal(t, "- 15 days of PTO", out)
	assert.InDelta(t, 0.3, m.opts.Temperature, 1e-9)
	require.Len(t, m.messages, 1)
	assert.Equal(t, schema.ChatMessageTypeHuman, m.messages[0].Role)
}

func TestLLMGenerator_WrapsErrors(t *testing.T) {
	g := NewLLMGenerator(&fakeModel{err: errors.New("safety block")}, "fake")

	_, err := g.Generate(context.Background(), "p", domain.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake generate")
	assert.Contains(t, err.Error(), "safety block")
}

func TestNewOpenAI_AgainstCompatibleServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.1:8b", body["model"])
		assert.InDelta(t, 0.3, body["temperature"], 1e-9)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama3.1:8b",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Core hours are 10am to 4pm."},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	g, err := NewOpenAI(OpenAIConfig{BaseURL: server.URL, Model: "llama3.1:8b"})
	require.NoError(t, err)
	assert.Equal(t, "openai:llama3.1:8b", g.Name())

	out, err := g.Generate(context.Background(), "What are the working hours?", domain.GenerateOptions{Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Core hours are 10am to 4pm.", out)
}

func TestNewGemini_RequiresAPIKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
