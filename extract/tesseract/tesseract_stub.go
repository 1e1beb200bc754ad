//go:build !cgo

package tesseract

import (
	"context"
	"fmt"

	"github.com/poiesic/ragpipe/extract"
)

// Ensure Engine implements the loader's OCR interface.
var _ extract.OCR = (*Engine)(nil)

// Engine is a stub for builds without cgo. Constructing it fails so callers
// degrade to running without OCR instead of silently recognizing nothing.
type Engine struct{}

// New reports that OCR support was not compiled in.
func New(_ ...string) (*Engine, error) {
	return nil, fmt.Errorf("%w: built without cgo", extract.ErrOCRUnavailable)
}

// ImageText is never reachable through New, but keeps the stub implementing
// the OCR interface.
func (e *Engine) ImageText(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("%w: built without cgo", extract.ErrOCRUnavailable)
}

// Close releases nothing.
func (e *Engine) Close() error { return nil }
