package vectorstore

import "handbookbot/internal/domain"

// Record is a vector with the metadata returned alongside it on a match.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Writable is a vector index that can be loaded in-process.
type Writable interface {
	domain.VectorIndex
	Upsert(records []Record) error
	Clear() error
	Len() int
}
