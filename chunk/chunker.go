// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunk

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/extract"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultOverlap is the number of characters shared between adjacent
	// chunks, preserving context across chunk boundaries.
	DefaultOverlap = 200
)

// Chunker splits extracted segments into overlapping chunks sized for
// embedding.
type Chunker struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the target chunk length in characters.
// Default is 1000.
func WithChunkSize(n int) Option {
	return func(c *Chunker) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, n)
		}
		c.size = n
		return nil
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
// Default is 200. Must be smaller than the chunk size.
func WithOverlap(n int) Option {
	return func(c *Chunker) error {
		if n < 0 {
			return fmt.Errorf("%w: %d", ErrOverlapTooLarge, n)
		}
		c.overlap = n
		return nil
	}
}

// NewChunker creates a chunker.
func NewChunker(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.size {
		return nil, fmt.Errorf("%w: overlap %d, size %d", ErrOverlapTooLarge, c.overlap, c.size)
	}
	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
	)
	return c, nil
}

// Split chunks every segment and stamps each chunk with the source name and
// the page the segment came from. Each chunk gets a fresh UUID, which later
// becomes its vector point id. Segments that produce only whitespace are
// dropped.
func (c *Chunker) Split(segments []extract.Segment, source string) ([]core.Chunk, error) {
	var chunks []core.Chunk
	for _, segment := range segments {
		pieces, err := c.splitter.SplitText(segment.Text)
		if err != nil {
			return nil, fmt.Errorf("split segment (page %d): %w", segment.Page, err)
		}
		for _, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			chunks = append(chunks, core.Chunk{
				ID:     core.NewChunkID(),
				Text:   piece,
				Source: source,
				Page:   segment.Page,
			})
		}
	}
	return chunks, nil
}
