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


package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragpipe/ai"
)

const (
	// DefaultMaxBatchSize caps the heuristic batch size regardless of how
	// much accelerator memory is reported free.
	DefaultMaxBatchSize = 64

	// bytesPerChar is the assumed accelerator memory cost of one input
	// character during embedding (activations dominate, so this is
	// deliberately generous).
	bytesPerChar = 4096
)

// Batcher embeds chunk texts in batches sized to the available accelerator
// memory. Batching is purely a throughput heuristic: for any batch size the
// output vectors are identical to embedding one text at a time.
type Batcher struct {
	embedder     ai.Embedder
	probe        ai.MemoryProbe
	maxBatchSize int
	logger       *slog.Logger
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher) error

// WithMemoryProbe sets the accelerator memory probe.
// Default is ai.DefaultMemoryProbe (no accelerator, batch size 1).
func WithMemoryProbe(probe ai.MemoryProbe) BatcherOption {
	return func(b *Batcher) error {
		if probe == nil {
			return fmt.Errorf("memory probe must not be nil")
		}
		b.probe = probe
		return nil
	}
}

// WithMaxBatchSize caps the heuristic batch size.
// Default is 64.
func WithMaxBatchSize(n int) BatcherOption {
	return func(b *Batcher) error {
		if n < 1 {
			return fmt.Errorf("max batch size must be positive, got %d", n)
		}
		b.maxBatchSize = n
		return nil
	}
}

// WithBatcherLogger sets a custom logger.
// Default is slog.Default().
func WithBatcherLogger(logger *slog.Logger) BatcherOption {
	return func(b *Batcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBatcher creates an embedding batcher.
func NewBatcher(embedder ai.Embedder, opts ...BatcherOption) (*Batcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	b := &Batcher{
		embedder:     embedder,
		probe:        ai.DefaultMemoryProbe,
		maxBatchSize: DefaultMaxBatchSize,
		logger:       slog.Default().With("component", "batcher"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Accelerated reports whether the memory probe sees an accelerator.
func (b *Batcher) Accelerated() bool {
	_, accelerated := b.probe()
	return accelerated
}

// BatchSize picks a batch size for the given texts. Longer average text
// means smaller batches; without an accelerator the batch size is 1.
func (b *Batcher) BatchSize(texts []string) int {
	if len(texts) == 0 {
		return 1
	}

	free, accelerated := b.probe()
	if !accelerated {
		return 1
	}

	total := 0
	for _, text := range texts {
		total += len(text)
	}
	avg := total / len(texts)
	if avg < 1 {
		avg = 1
	}

	size := int(free / int64(avg*bytesPerChar))
	if size < 1 {
		size = 1
	}
	if size > b.maxBatchSize {
		size = b.maxBatchSize
	}
	return size
}

// Embed converts texts into vectors, preserving input order. A backend
// failure is fatal for the run; no retry happens at this layer.
func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := b.BatchSize(texts)
	b.logger.Debug("embedding texts", "count", len(texts), "batch_size", batchSize)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		batch, err := b.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
