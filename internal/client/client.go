// Package client calls the handbook query API on behalf of the chat UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"handbookbot/internal/domain"
)

// ErrUnreachable wraps transport failures and replies that could not be read.
var ErrUnreachable = errors.New("handbook API unreachable")

// ResponseError is a non-2xx reply from the API.
type ResponseError struct {
	Status  int
	Message string
	Details string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return e.Message
}

// Client posts questions to /api/query.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ask sends one question and decodes the answer.
func (c *Client) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.Unmarshal(data, &eb)
		return nil, &ResponseError{Status: resp.StatusCode, Message: eb.Error, Details: eb.Details}
	}

	var ans domain.Answer
	if err := json.Unmarshal(data, &ans); err != nil {
		return nil, fmt.Errorf("%w: decode answer: %v", ErrUnreachable, err)
	}
	return &ans, nil
}
