package extract

import "errors"

var (
	// ErrUnsupportedType is returned for file extensions the loader does not handle.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrOCRUnavailable is returned when an image format is loaded without an OCR engine.
	ErrOCRUnavailable = errors.New("ocr engine not available")

	// ErrNoContent indicates extraction succeeded but produced no text.
	ErrNoContent = errors.New("document produced no text content")
)
