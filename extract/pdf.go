package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
)

// loadPDF extracts per-page text, and when OCR is available also recognizes
// embedded images above the size threshold, appending their text as
// supplementary segments.
func (l *Loader) loadPDF(ctx context.Context, path string) (*Result, error) {
	segments, err := pdfTextSegments(path)
	if err != nil {
		return nil, fmt.Errorf("pdf extraction failed for %s: %w", filepath.Base(path), err)
	}

	result := &Result{Segments: segments}

	if l.ocr == nil {
		return result, nil
	}

	ocrSegments, err := l.pdfImageSegments(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pdf image ocr failed for %s: %w", filepath.Base(path), err)
	}

	result.OCRApplied = true
	result.Segments = append(result.Segments, ocrSegments...)
	return result, nil
}

// pdfTextSegments extracts one segment per non-empty page.
func pdfTextSegments(path string) ([]Segment, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var segments []Segment
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Page: i})
	}
	return segments, nil
}

// pdfImageSegments extracts embedded images into a scratch directory, runs
// OCR on every image above the size threshold, and returns one segment per
// image that produced text. The scratch directory is removed unconditionally,
// including when extraction or recognition fails.
func (l *Loader) pdfImageSegments(ctx context.Context, path string) ([]Segment, error) {
	scratchDir, err := os.MkdirTemp("", "ragpipe-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create ocr scratch dir: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	if err := pdfcpu.ExtractImagesFile(path, scratchDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract embedded images: %w", err)
	}

	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("read ocr scratch dir: %w", err)
	}

	var segments []Segment
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		if info.Size() < l.minImageBytes {
			l.logger.Debug("skipping small embedded image",
				"image", entry.Name(), "bytes", info.Size())
			continue
		}

		text, err := l.ocr.ImageText(ctx, filepath.Join(scratchDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("ocr embedded image %s: %w", entry.Name(), err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Page: len(segments) + 1, OCR: true})
	}

	return segments, nil
}
