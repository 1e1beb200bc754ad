package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// loadText reads a plain-text file as a single segment.
func (l *Loader) loadText(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return &Result{}, nil
	}
	return &Result{Segments: []Segment{{Text: text, Page: 1}}}, nil
}

// loadCSV emits one segment per data row. When the file has a header row,
// each row is rendered as "header: value" pairs so column meaning survives
// chunking; a single-row file is emitted as-is.
func (l *Loader) loadCSV(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return &Result{}, nil
	}

	if len(rows) == 1 {
		text := strings.TrimSpace(strings.Join(rows[0], ", "))
		if text == "" {
			return &Result{}, nil
		}
		return &Result{Segments: []Segment{{Text: text, Page: 1}}}, nil
	}

	header := rows[0]
	segments := make([]Segment, 0, len(rows)-1)
	for i, row := range rows[1:] {
		pairs := make([]string, 0, len(row))
		for j, value := range row {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if j < len(header) && strings.TrimSpace(header[j]) != "" {
				pairs = append(pairs, strings.TrimSpace(header[j])+": "+value)
			} else {
				pairs = append(pairs, value)
			}
		}
		if len(pairs) == 0 {
			continue
		}
		segments = append(segments, Segment{Text: strings.Join(pairs, ", "), Page: i + 1})
	}

	return &Result{Segments: segments}, nil
}
