package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"handbookbot/internal/domain"
	"handbookbot/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu      sync.RWMutex
	records []vectorstore.Record
}

var _ vectorstore.Writable = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{} }

// Upsert adds records, replacing any existing record with the same ID.
// All vectors must share one dimension.
func (s *Storage) Upsert(records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := -1
	if len(s.records) > 0 {
		dim = len(s.records[0].Vector)
	}
	for _, r := range records {
		if dim == -1 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return errors.New("vector dimension mismatch")
		}
	}
	pos := make(map[string]int, len(s.records))
	for i, r := range s.records {
		pos[r.ID] = i
	}
	for _, r := range records {
		if i, ok := pos[r.ID]; ok {
			s.records[i] = r
			continue
		}
		pos[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

// Query returns the topK records most similar to vector, best first.
func (s *Storage) Query(_ context.Context, vector []float32, topK int) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	scores := make([]float64, len(s.records))
	for i := range s.records {
		scores[i] = cosine(s.records[i].Vector, vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	matches := make([]domain.Match, 0, topK)
	for _, j := range idxs[:topK] {
		r := s.records[j]
		matches = append(matches, domain.Match{ID: r.ID, Score: scores[j], Metadata: r.Metadata})
	}
	return matches, nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// argsortDesc returns indexes ordered by descending value; ties keep insertion order.
func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return vals[idxs[i]] > vals[idxs[j]] })
	return idxs
}
