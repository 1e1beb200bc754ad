package vectorstore

import "errors"

var (
	// ErrDimensionMismatch is returned when the store's collection was created
	// with a different vector dimension than the one requested. Mixing
	// dimensions silently corrupts search results, so this fails loudly.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyVector is returned when a zero-length vector is submitted.
	ErrEmptyVector = errors.New("vector must not be empty")
)
