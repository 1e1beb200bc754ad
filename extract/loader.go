package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// defaultMinImageBytes filters out icons and decorative images before OCR.
const defaultMinImageBytes = 10 * 1024

// OCR recognizes text in an image file.
// Implementations must be safe for concurrent use.
type OCR interface {
	// ImageText runs optical character recognition on the image at path and
	// returns the recognized text. An empty string is a valid result for
	// images without text.
	ImageText(ctx context.Context, path string) (string, error)
}

// Segment is one logical unit of extracted text: a PDF page, a spreadsheet
// row, a whole plain-text file, or the OCR output for one image.
type Segment struct {
	Text string
	Page int  // 1-based page or row marker within the source
	OCR  bool // true when the text came from optical character recognition
}

// Result is the output of loading one document.
type Result struct {
	Segments   []Segment
	OCRApplied bool
}

// Loader extracts raw text segments from source documents.
type Loader struct {
	ocr           OCR
	minImageBytes int64
	logger        *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithOCR attaches an OCR engine. Without one, image formats are rejected
// and PDF embedded images are skipped.
func WithOCR(ocr OCR) Option {
	return func(l *Loader) error {
		l.ocr = ocr
		return nil
	}
}

// WithMinImageBytes sets the minimum embedded-image size considered for OCR.
// Default is 10KiB, which filters out icons and decorations.
func WithMinImageBytes(n int64) Option {
	return func(l *Loader) error {
		if n < 0 {
			return fmt.Errorf("min image bytes must not be negative")
		}
		l.minImageBytes = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a document loader.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		minImageBytes: defaultMinImageBytes,
		logger:        slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// imageExtensions are the plain image formats handled via direct OCR.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".tiff": true, ".tif": true, ".bmp": true,
}

// Load extracts text segments from the file at path.
//
// Unsupported extensions return ErrUnsupportedType. An image whose OCR output
// is empty or whitespace yields zero segments and no error; callers treat
// that as "nothing to ingest", not a failure.
func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case ext == ".pdf":
		return l.loadPDF(ctx, path)
	case ext == ".txt":
		return l.loadText(path)
	case ext == ".csv":
		return l.loadCSV(path)
	case ext == ".docx" || ext == ".doc":
		return l.loadDocx(path)
	case imageExtensions[ext]:
		return l.loadImage(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// loadImage runs OCR directly on a plain image file.
func (l *Loader) loadImage(ctx context.Context, path string) (*Result, error) {
	if l.ocr == nil {
		return nil, fmt.Errorf("%w: cannot load %s", ErrOCRUnavailable, filepath.Base(path))
	}

	text, err := l.ocr.ImageText(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ocr failed for %s: %w", filepath.Base(path), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		l.logger.Warn("image produced no OCR text", "path", path)
		return &Result{Segments: nil, OCRApplied: true}, nil
	}

	return &Result{
		Segments:   []Segment{{Text: text, Page: 1, OCR: true}},
		OCRApplied: true,
	}, nil
}
