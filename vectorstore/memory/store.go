// Package memory implements the vector store in process memory. It is used
// in tests and works for small single-node deployments where running Qdrant
// is not worth the operational cost.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/vectorstore"
)

// Ensure Store satisfies the interface.
var _ vectorstore.Store = (*Store)(nil)

// Store keeps points in a map guarded by a read-write mutex.
type Store struct {
	mu        sync.RWMutex
	dimension int
	points    map[string]vectorstore.Point
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{points: make(map[string]vectorstore.Point)}
}

// EnsureCollection fixes the store's dimension on first call and rejects a
// different dimension afterwards.
func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = dimension
		return nil
	}
	if s.dimension != dimension {
		return vectorstore.ErrDimensionMismatch
	}
	return nil
}

// Upsert writes points, replacing any with the same ID.
func (s *Store) Upsert(_ context.Context, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if len(p.Vector) == 0 {
			return vectorstore.ErrEmptyVector
		}
		s.points[p.ID] = p
	}
	return nil
}

// Search scans all points in the requested department and returns the
// closest by cosine similarity, best first.
func (s *Store) Search(_ context.Context, vector []float32, department string, limit int) ([]vectorstore.Hit, error) {
	if len(vector) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}
	department = core.NormalizeDepartment(department)

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]vectorstore.Hit, 0, len(s.points))
	for _, p := range s.points {
		if p.Payload.Department != department {
			continue
		}
		hits = append(hits, vectorstore.Hit{
			ID:      p.ID,
			Score:   cosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DeleteBySource removes every point with the given payload source.
func (s *Store) DeleteBySource(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.points {
		if p.Payload.Source == source {
			delete(s.points, id)
		}
	}
	return nil
}

// Close releases nothing.
func (s *Store) Close() error { return nil }

// Len reports the number of stored points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
