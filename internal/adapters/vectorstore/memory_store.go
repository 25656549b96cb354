package vectorstore

import (
	"context"
	"sync"

	"github.com/mikey/email-fraud-detector/internal/core"
)

// MemoryStore is an in-memory implementation of the VectorIndex interface
type MemoryStore struct {
	mu     sync.RWMutex
	points []Datapoint
	byID   map[string]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Upsert adds datapoints, replacing existing ones with the same ID in place
func (s *MemoryStore) Upsert(ctx context.Context, points []Datapoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if i, ok := s.byID[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.byID[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

// Query returns up to k nearest datapoints by cosine distance
func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rank(s.points, vector, k), nil
}

// Len returns the number of stored datapoints
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
