package ingest

import "errors"

var (
	// ErrLoaderRequired is returned when a document loader is not provided.
	ErrLoaderRequired = errors.New("document loader required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrNoContent indicates a document produced zero chunks. This is the
	// soft "nothing to ingest" failure, reported in the result rather than
	// treated as a pipeline malfunction.
	ErrNoContent = errors.New("document produced no ingestible content")
)
