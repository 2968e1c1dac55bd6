package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"handbookbot/internal/config"
	"handbookbot/internal/domain"
	"handbookbot/internal/embedding/gemini"
	"handbookbot/internal/embedding/openai"
	"handbookbot/internal/generation"
	"handbookbot/internal/localindex"
	"handbookbot/internal/service"
	"handbookbot/internal/vectorstore/pinecone"
	"handbookbot/internal/vectorstore/qdrant"
)

// buildService assembles the pipeline from cfg. The returned local index is
// non-nil only in offline mode, so the caller can start watching it.
func buildService(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*service.HandbookService, *localindex.Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	secrets := config.ReadSecrets(cfg)

	var local *localindex.Index
	if cfg.VectorStore.Type == "memory" {
		local = localindex.New(localindex.Config{
			Paths:             cfg.Local.Handbook,
			SentencesPerChunk: cfg.Local.SentencesPerChunk,
			OverlapSentences:  cfg.Local.OverlapSentences,
		}, logger.Named("localindex"))
		if err := local.Build(); err != nil {
			return nil, nil, fmt.Errorf("build local index: %w", err)
		}
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "google":
		g, err := gemini.New(ctx, gemini.Config{APIKey: secrets.Embedder, Model: cfg.Embedder.Model})
		if err != nil {
			return nil, nil, fmt.Errorf("embedder: %w", err)
		}
		emb = g
	case "openai":
		emb = openai.NewClient(openai.Config{
			BaseURL: cfg.Embedder.BaseURL,
			APIKey:  secrets.Embedder,
			Model:   cfg.Embedder.Model,
			Timeout: config.Seconds(cfg.Embedder.TimeoutSecs),
		})
	case "tfidf":
		emb = local
	}

	var idx domain.VectorIndex
	switch cfg.VectorStore.Type {
	case "pinecone":
		p := cfg.VectorStore.Pinecone
		pc, err := pinecone.NewIndex(pinecone.Config{
			APIKey:        secrets.Pinecone,
			IndexName:     p.Index,
			Host:          p.Host,
			Namespace:     p.Namespace,
			ControllerURL: p.ControllerURL,
			Timeout:       config.Seconds(p.TimeoutSecs),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("vector store: %w", err)
		}
		idx = pc
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		qs, err := qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    config.Seconds(q.TimeoutSecs),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("vector store: %w", err)
		}
		idx = qs
	case "memory":
		idx = local
	}

	var gen *generation.LLMGenerator
	var err error
	switch cfg.Generator.Type {
	case "google":
		gen, err = generation.NewGemini(ctx, generation.GeminiConfig{APIKey: secrets.Generator, Model: cfg.Generator.Model})
	case "openai":
		gen, err = generation.NewOpenAI(generation.OpenAIConfig{
			BaseURL: cfg.Generator.BaseURL,
			APIKey:  secrets.Generator,
			Model:   cfg.Generator.Model,
		})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("generator: %w", err)
	}

	logger.Info("pipeline ready",
		zap.String("embedder", emb.Name()),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("generator", gen.Name()))

	svc := service.NewHandbookService(
		service.Backends{Embedder: emb, Index: idx, Generator: gen},
		service.Options{
			TopK:         cfg.Retrieval.TopK,
			MinScore:     cfg.Retrieval.MinScore,
			SnippetChars: cfg.Retrieval.SnippetChars,
			Temperature:  cfg.Generator.Temperature,
		},
		logger.Named("service"),
	)
	return svc, local, nil
}
