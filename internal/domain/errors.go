package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates the question was missing or empty.
	ErrInvalidInput = errors.New("question is required")
)

// Pipeline stages reported by UpstreamError.
const (
	StageEmbedding  = "embedding"
	StageRetrieval  = "retrieval"
	StageGeneration = "generation"
)

// UpstreamError reports a failure of one of the external services.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as a failure of the given stage.
func Upstream(stage string, err error) error {
	return &UpstreamError{Stage: stage, Err: err}
}
