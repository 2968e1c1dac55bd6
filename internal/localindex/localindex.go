// Package localindex builds an in-process handbook index from text files, so
// the service can run without the hosted embedding and vector services.
// It serves as both the embedder and the vector index of the pipeline.
package localindex

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"handbookbot/internal/chunker"
	"handbookbot/internal/domain"
	"handbookbot/internal/embedding/tfidf"
	"handbookbot/internal/vectorstore"
	"handbookbot/internal/vectorstore/memory"
)

// Config selects the handbook files and how they are chunked.
type Config struct {
	Paths             []string
	SentencesPerChunk int
	OverlapSentences  int
}

var supportedExt = map[string]bool{".txt": true, ".md": true}

// Index is a TF-IDF embedder paired with the memory store holding its vectors.
// Build replaces both together.
type Index struct {
	paths   []string
	chunker *chunker.SentenceChunker
	logger  *zap.Logger

	mu       sync.RWMutex
	embedder *tfidf.Embedder
	store    vectorstore.Writable
}

var (
	_ domain.Embedder    = (*Index)(nil)
	_ domain.VectorIndex = (*Index)(nil)
)

func New(cfg Config, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		paths:   cfg.Paths,
		chunker: chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences),
		logger:  logger,
	}
}

// Build reads the handbook files, chunks and embeds them, and swaps the result in.
func (x *Index) Build() error {
	docs, err := x.loadDocuments()
	if err != nil {
		return err
	}
	var chunks []chunker.Chunk
	for _, d := range docs {
		chunks = append(chunks, x.chunker.Chunk(d)...)
	}
	if len(chunks) == 0 {
		return errors.New("handbook files contain no text")
	}
	corpus := make([]string, len(chunks))
	for i, ch := range chunks {
		corpus[i] = ch.Text
	}
	emb, err := tfidf.Fit(corpus)
	if err != nil {
		return err
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, ch := range chunks {
		vec, err := emb.Embed(context.Background(), ch.Text)
		if err != nil {
			return err
		}
		records[i] = vectorstore.Record{
			ID:     ch.ChunkID,
			Vector: vec,
			Metadata: map[string]any{
				"text":        ch.Text,
				"document_id": ch.DocumentID,
				"chunk_index": ch.Index,
			},
		}
	}
	var store vectorstore.Writable = memory.NewStorage()
	if err := store.Upsert(records); err != nil {
		return err
	}

	x.mu.Lock()
	x.embedder, x.store = emb, store
	x.mu.Unlock()
	x.logger.Info("built local handbook index",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", store.Len()),
		zap.Int("dimension", emb.Dimension()))
	return nil
}

func (x *Index) Name() string { return "tfidf" }

// Embed embeds text with the vocabulary of the current build.
func (x *Index) Embed(ctx context.Context, text string) ([]float32, error) {
	x.mu.RLock()
	emb := x.embedder
	x.mu.RUnlock()
	if emb == nil {
		return nil, errors.New("local index not built")
	}
	return emb.Embed(ctx, text)
}

// Query searches the current build.
func (x *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	x.mu.RLock()
	store := x.store
	x.mu.RUnlock()
	if store == nil {
		return nil, errors.New("local index not built")
	}
	return store.Query(ctx, vector, topK)
}

// Watch rebuilds the index whenever a handbook file changes, until ctx is done.
// Bursts of events within the debounce window trigger one rebuild.
func (x *Index) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := map[string]struct{}{}
	for _, p := range x.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !x.watches(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			x.logger.Debug("handbook file changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			x.logger.Warn("file watcher error", zap.Error(err))
		case <-timer.C:
			if err := x.Build(); err != nil {
				x.logger.Error("rebuilding local index", zap.Error(err))
			}
		}
	}
}

// watches reports whether path is one of the configured handbook files.
func (x *Index) watches(path string) bool {
	if !supportedExt[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	for _, p := range x.paths {
		if ok, _ := filepath.Match(p, path); ok || filepath.Clean(p) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

func (x *Index) loadDocuments() ([]chunker.Document, error) {
	var docs []chunker.Document
	for _, p := range x.paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if !supportedExt[strings.ToLower(filepath.Ext(m))] {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, err
			}
			docs = append(docs, chunker.Document{ID: hashString(m), Path: m, Content: string(data)})
		}
	}
	if len(docs) == 0 {
		return nil, errors.New("no .txt or .md handbook files found")
	}
	return docs, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
