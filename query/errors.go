package query

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrEmbeddingUnavailable is returned when the query embedding fails.
	// No retrieval is possible without it, so the query aborts.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGeneratorUnavailable is returned when no generation backend is
	// configured. Checked before any embedding or search work happens.
	ErrGeneratorUnavailable = errors.New("generation service unavailable")
)
