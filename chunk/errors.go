package chunk

import "errors"

var (
	// ErrInvalidChunkSize is returned when the configured chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrOverlapTooLarge is returned when the configured overlap is not
	// smaller than the chunk size; such a splitter would never advance.
	ErrOverlapTooLarge = errors.New("chunk overlap must be smaller than chunk size")
)
