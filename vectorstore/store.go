// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vectorstore

import (
	"context"

	"github.com/poiesic/ragpipe/core"
)

// Payload is the metadata stored alongside each vector. Department is
// always stored normalized (lowercase, trimmed) so keyword filters match
// regardless of how callers spell it.
type Payload struct {
	Text       string
	Source     string
	Page       int
	Department string
}

// Point is one embedded chunk ready for storage. ID is the chunk's UUID.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Hit is one search result, best first.
type Hit struct {
	ID      string
	Score   float32
	Payload Payload
}

// Store persists embedded chunks and serves similarity search over them.
// Implementations must be safe for concurrent use.
type Store interface {
	// EnsureCollection creates the backing collection with the given vector
	// dimension if it does not exist, and returns ErrDimensionMismatch when
	// an existing collection was created with a different dimension.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes points, replacing any with the same ID.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit hits most similar to vector, restricted to
	// the given department. Department matching is exact on the normalized
	// form. Results are ordered best first.
	Search(ctx context.Context, vector []float32, department string, limit int) ([]Hit, error)

	// DeleteBySource removes every point ingested from the named source
	// document. Used when a document is re-ingested or retired.
	DeleteBySource(ctx context.Context, source string) error

	// Close releases the store's resources.
	Close() error
}

// PointFromChunk pairs a chunk with its embedding vector.
func PointFromChunk(chunk core.Chunk, vector []float32, department string) Point {
	return Point{
		ID:     chunk.ID,
		Vector: vector,
		Payload: Payload{
			Text:       chunk.Text,
			Source:     chunk.Source,
			Page:       chunk.Page,
			Department: core.NormalizeDepartment(department),
		},
	}
}
