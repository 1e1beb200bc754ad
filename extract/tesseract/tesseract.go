//go:build cgo

package tesseract

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/poiesic/ragpipe/extract"
)

// Ensure Engine implements the loader's OCR interface.
var _ extract.OCR = (*Engine)(nil)

// Engine recognizes text in images using the Tesseract library.
//
// gosseract clients are not safe for concurrent use, so a single client is
// guarded by a mutex. OCR is CPU-bound anyway; serializing recognitions
// keeps memory use predictable.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates an OCR engine for the given languages, for example "eng" or
// "eng+deu". An empty language list uses Tesseract's default.
func New(languages ...string) (*Engine, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set tesseract languages: %w", err)
		}
	}
	return &Engine{client: client}, nil
}

// ImageText runs recognition on the image at path.
func (e *Engine) ImageText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImage(path); err != nil {
		return "", fmt.Errorf("set image %s: %w", path, err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", path, err)
	}
	return text, nil
}

// Close releases the underlying Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
