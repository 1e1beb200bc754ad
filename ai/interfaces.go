package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use, and must produce
// vectors of a fixed dimension for the lifetime of the instance.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Embeddings must not depend on batch composition: any
	// batching of the same texts produces identical vectors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer from an instruction-formatted prompt.
// Implementations must be thread-safe for concurrent use.
//
// Generation is intentionally non-deterministic: implementations sample with
// fixed temperature and nucleus top-p, so repeated calls with the same prompt
// may return different text.
type Generator interface {
	// Generate invokes the language model on the prompt and returns the raw
	// model output. Callers are responsible for answer extraction.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model identifier, recorded in query history.
	Model() string
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
