package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"handbookbot/internal/domain"
)

// Options tunes retrieval and generation.
type Options struct {
	TopK         int
	MinScore     float64
	SnippetChars int
	Temperature  float64
}

// DefaultOptions returns the retrieval and generation settings the API answers with.
func DefaultOptions() Options {
	return Options{TopK: 5, MinScore: 0.6, SnippetChars: 300, Temperature: 0.3}
}

// Backends groups the three external services the pipeline drives.
type Backends struct {
	Embedder  domain.Embedder
	Index     domain.VectorIndex
	Generator domain.Generator
}

// HandbookService answers handbook questions: embed, retrieve, generate.
type HandbookService struct {
	backends Backends
	opts     Options
	logger   *zap.Logger
}

var _ domain.Asker = (*HandbookService)(nil)

func NewHandbookService(backends Backends, opts Options, logger *zap.Logger) *HandbookService {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.SnippetChars <= 0 {
		opts.SnippetChars = def.SnippetChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandbookService{backends: backends, opts: opts, logger: logger}
}

// Answer runs the pipeline for a single question. Stages run strictly in
// sequence and none are retried.
func (s *HandbookService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidInput
	}
	start := time.Now()
	log := s.logger.With(zap.Int("question_len", len(question)))
	log.Info("processing question")

	vec, err := s.backends.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.Upstream(domain.StageEmbedding, err)
	}
	log.Debug("generated embedding", zap.Int("dimension", len(vec)), zap.String("embedder", s.backends.Embedder.Name()))

	matches, err := s.backends.Index.Query(ctx, vec, s.opts.TopK)
	if err != nil {
		return nil, domain.Upstream(domain.StageRetrieval, err)
	}
	passages := relevantTexts(matches, s.opts.MinScore)
	log.Info("retrieved passages", zap.Int("matches", len(matches)), zap.Int("relevant", len(passages)))

	if len(passages) == 0 {
		log.Info("no relevant passages", zap.Duration("latency", time.Since(start)))
		return fallback(), nil
	}

	prompt := composePrompt(question, passages)
	text, err := s.backends.Generator.Generate(ctx, prompt, domain.GenerateOptions{Temperature: s.opts.Temperature})
	if err != nil {
		return nil, domain.Upstream(domain.StageGeneration, err)
	}

	answer := &domain.Answer{
		Answer:     text,
		Sources:    formatSources(matches, s.opts.SnippetChars),
		Confidence: confidence(matches),
	}
	log.Info("generated answer",
		zap.Int("confidence", answer.Confidence),
		zap.Duration("latency", time.Since(start)))
	return answer, nil
}
