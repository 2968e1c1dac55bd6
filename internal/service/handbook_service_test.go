package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handbookbot/internal/domain"
)

// fakeEmbedder returns a deterministic vector derived from the text length.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

// fakeIndex returns canned matches and records the requested topK.
type fakeIndex struct {
	matches []domain.Match
	err     error
	topK    int
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]domain.Match, error) {
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

// echoGenerator answers with the prompt it was given.
type echoGenerator struct {
	err    error
	calls  int
	prompt string
	opts   domain.GenerateOptions
}

func (g *echoGenerator) Generate(_ context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	g.calls++
	g.prompt = prompt
	g.opts = opts
	if g.err != nil {
		return "", g.err
	}
	return prompt, nil
}

func match(id string, score float64, text string) domain.Match {
	return domain.Match{ID: id, Score: score, Metadata: map[string]any{"text": text}}
}

func newTestService(idx *fakeIndex, gen *echoGenerator) (*HandbookService, *fakeEmbedder) {
	emb := &fakeEmbedder{}
	svc := NewHandbookService(Backends{Embedder: emb, Index: idx, Generator: gen}, DefaultOptions(), nil)
	return svc, emb
}

func TestAnswer_VacationScenario(t *testing.T) {
	idx := &fakeIndex{matches: []domain.Match{
		match("a", 0.9, "Employees accrue 15 vacation days per year."),
		match("b", 0.75, "Vacation requests need two weeks notice."),
		match("c", 0.5, "The office closes at 6pm."),
	}}
	gen := &echoGenerator{}
	svc, _ := newTestService(idx, gen)

	ans, err := svc.Answer(context.Background(), "What is the vacation policy?")
	require.NoError(t, err)

	assert.Equal(t, 5, idx.topK)
	assert.Equal(t, 72, ans.Confidence)
	require.Len(t, ans.Sources, 3)
	assert.Equal(t, []int{90, 75, 50}, []int{ans.Sources[0].Relevance, ans.Sources[1].Relevance, ans.Sources[2].Relevance})
	for i, src := range ans.Sources {
		assert.Equal(t, i, src.ID)
	}

	assert.Contains(t, gen.prompt, "Employees accrue 15 vacation days per year.\n\nVacation requests need two weeks notice.")
	assert.NotContains(t, gen.prompt, "The office closes at 6pm.")
	assert.Contains(t, gen.prompt, "Employee Question: What is the vacation policy?")
	assert.InDelta(t, 0.3, gen.opts.Temperature, 1e-9)
	assert.Equal(t, gen.prompt, ans.Answer)
}

func TestAnswer_NoRelevantMatchesReturnsFallback(t *testing.T) {
	idx := &fakeIndex{matches: []domain.Match{
		match("a", 0.6, "exactly at threshold"),
		match("b", 0.41, "too far"),
	}}
	gen := &echoGenerator{}
	svc, _ := newTestService(idx, gen)

	ans, err := svc.Answer(context.Background(), "Can I bring my dog?")
	require.NoError(t, err)

	assert.Equal(t, FallbackAnswer, ans.Answer)
	assert.Empty(t, ans.Sources)
	assert.NotNil(t, ans.Sources)
	assert.Equal(t, 0, ans.Confidence)
	assert.Zero(t, gen.calls, "generation must be skipped")
}

func TestAnswer_NoMatchesAtAll(t *testing.T) {
	gen := &echoGenerator{}
	svc, _ := newTestService(&fakeIndex{}, gen)

	ans, err := svc.Answer(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, ans.Answer)
	assert.Equal(t, 0, ans.Confidence)
}

func TestAnswer_RelevantMatchWithoutTextFallsBack(t *testing.T) {
	idx := &fakeIndex{matches: []domain.Match{
		{ID: "a", Score: 0.95, Metadata: map[string]any{"page": 4}},
		match("b", 0.9, ""),
	}}
	gen := &echoGenerator{}
	svc, _ := newTestService(idx, gen)

	ans, err := svc.Answer(context.Background(), "dress code?")
	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, ans.Answer)
	assert.Empty(t, ans.Sources)
}

func TestAnswer_ConfidenceIgnoresFilter(t *testing.T) {
	idx := &fakeIndex{matches: []domain.Match{
		match("a", 0.61, "passes"),
		match("b", 0.1, "fails"),
		match("c", 0.1, "fails"),
		match("d", 0.1, "fails"),
	}}
	svc, _ := newTestService(idx, &echoGenerator{})

	ans, err := svc.Answer(context.Background(), "q")
	require.NoError(t, err)
	// (0.61 + 0.1*3) / 4 = 0.2275
	assert.Equal(t, 23, ans.Confidence)
	assert.Len(t, ans.Sources, 4)
}

func TestAnswer_SourceWithoutTextIsListed(t *testing.T) {
	idx := &fakeIndex{matches: []domain.Match{
		match("a", 0.8, "Remote work requires manager approval."),
		{ID: "b", Score: 0.7},
	}}
	svc, _ := newTestService(idx, &echoGenerator{})

	ans, err := svc.Answer(context.Background(), "remote work?")
	require.NoError(t, err)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "No text available", ans.Sources[1].Text)
	assert.Equal(t, 70, ans.Sources[1].Relevance)
}

func TestAnswer_TruncatesLongSources(t *testing.T) {
	long := strings.Repeat("x", 450)
	idx := &fakeIndex{matches: []domain.Match{match("a", 0.8, long)}}
	gen := &echoGenerator{}
	svc, _ := newTestService(idx, gen)

	ans, err := svc.Answer(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, ans.Sources, 1)
	assert.Len(t, ans.Sources[0].Text, 303)
	assert.True(t, strings.HasSuffix(ans.Sources[0].Text, "..."))
	assert.Contains(t, gen.prompt, long, "prompt context keeps the full passage")
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		gen := &echoGenerator{}
		svc, emb := newTestService(&fakeIndex{}, gen)

		_, err := svc.Answer(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, emb.calls)
	}
}

func TestAnswer_UpstreamFailures(t *testing.T) {
	boom := errors.New("boom")
	relevant := []domain.Match{match("a", 0.9, "text")}

	tests := []struct {
		name  string
		emb   *fakeEmbedder
		idx   *fakeIndex
		gen   *echoGenerator
		stage string
	}{
		{"embedding", &fakeEmbedder{err: boom}, &fakeIndex{matches: relevant}, &echoGenerator{}, domain.StageEmbedding},
		{"retrieval", &fakeEmbedder{}, &fakeIndex{err: boom}, &echoGenerator{}, domain.StageRetrieval},
		{"generation", &fakeEmbedder{}, &fakeIndex{matches: relevant}, &echoGenerator{err: boom}, domain.StageGeneration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHandbookService(Backends{Embedder: tt.emb, Index: tt.idx, Generator: tt.gen}, DefaultOptions(), nil)

			_, err := svc.Answer(context.Background(), "q")
			require.Error(t, err)

			var upErr *domain.UpstreamError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, tt.stage, upErr.Stage)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestNewHandbookService_FillsZeroOptions(t *testing.T) {
	svc := NewHandbookService(Backends{}, Options{MinScore: 0.6, Temperature: 0.3}, nil)
	assert.Equal(t, 5, svc.opts.TopK)
	assert.Equal(t, 300, svc.opts.SnippetChars)
	assert.NotNil(t, svc.logger)
}
