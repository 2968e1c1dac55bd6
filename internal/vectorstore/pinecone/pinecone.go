// Package pinecone queries a Pinecone serverless index over its REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"handbookbot/internal/domain"
)

// Default configuration values.
const (
	DefaultControllerURL = "https://api.pinecone.io"
	DefaultIndexName     = "handbook-index"
	APIVersion           = "2024-07"
	DefaultTimeout       = 15 * time.Second
)

// Config configures the Pinecone index client. When Host is empty it is
// resolved from IndexName through the control plane on first use.
type Config struct {
	APIKey        string
	IndexName     string
	Host          string
	Namespace     string
	ControllerURL string
	Timeout       time.Duration
}

// Index is a read-only client for one Pinecone index.
type Index struct {
	apiKey        string
	indexName     string
	namespace     string
	controllerURL string
	client        *http.Client

	mu   sync.Mutex
	host string
}

var _ domain.VectorIndex = (*Index)(nil)

// NewIndex creates a Pinecone index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone: API key is required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.ControllerURL == "" {
		cfg.ControllerURL = DefaultControllerURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		apiKey:        cfg.APIKey,
		indexName:     cfg.IndexName,
		namespace:     cfg.Namespace,
		controllerURL: strings.TrimRight(cfg.ControllerURL, "/"),
		client:        &http.Client{Timeout: cfg.Timeout},
		host:          normalizeHost(cfg.Host),
	}, nil
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK nearest vectors, including their stored metadata.
func (x *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	host, err := x.resolveHost(ctx)
	if err != nil {
		return nil, err
	}
	body := queryRequest{Vector: vector, TopK: topK, IncludeMetadata: true, Namespace: x.namespace}
	var resp queryResponse
	if err := x.do(ctx, http.MethodPost, host+"/query", body, &resp); err != nil {
		return nil, err
	}
	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

func (x *Index) resolveHost(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.host != "" {
		return x.host, nil
	}
	var desc struct {
		Host string `json:"host"`
	}
	if err := x.do(ctx, http.MethodGet, x.controllerURL+"/indexes/"+x.indexName, nil, &desc); err != nil {
		return "", fmt.Errorf("pinecone: describing index %s: %w", x.indexName, err)
	}
	if desc.Host == "" {
		return "", fmt.Errorf("pinecone: index %s has no host", x.indexName)
	}
	x.host = normalizeHost(desc.Host)
	return x.host, nil
}

func (x *Index) do(ctx context.Context, method, url string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pinecone: marshaling request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("pinecone: creating request: %w", err)
	}
	req.Header.Set("Api-Key", x.apiKey)
	req.Header.Set("X-Pinecone-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pinecone %s %s failed: %s %s", method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pinecone: decoding response: %w", err)
	}
	return nil
}

func normalizeHost(h string) string {
	h = strings.TrimRight(h, "/")
	if h == "" || strings.Contains(h, "://") {
		return h
	}
	return "https://" + h
}
