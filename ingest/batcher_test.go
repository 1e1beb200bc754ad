package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragpipe/ai/mock"
)

func TestBatchSize(t *testing.T) {
	embedder := mock.NewEmbedder()

	t.Run("no accelerator means batch size 1", func(t *testing.T) {
		b, err := NewBatcher(embedder)
		require.NoError(t, err)
		assert.Equal(t, 1, b.BatchSize([]string{"a", "b", "c"}))
		assert.False(t, b.Accelerated())
	})

	t.Run("accelerator batch scales with free memory", func(t *testing.T) {
		b, err := NewBatcher(embedder, WithMemoryProbe(func() (int64, bool) {
			return 64 << 20, true // 64MiB free
		}))
		require.NoError(t, err)

		short := []string{"tiny", "text"}
		long := []string{strings.Repeat("x", 8000), strings.Repeat("y", 8000)}

		assert.Greater(t, b.BatchSize(short), b.BatchSize(long),
			"longer average text should shrink the batch")
		assert.GreaterOrEqual(t, b.BatchSize(long), 1)
		assert.LessOrEqual(t, b.BatchSize(short), DefaultMaxBatchSize)
	})

	t.Run("very low memory clamps to 1", func(t *testing.T) {
		b, err := NewBatcher(embedder, WithMemoryProbe(func() (int64, bool) {
			return 1, true
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, b.BatchSize([]string{strings.Repeat("x", 1000)}))
	})

	t.Run("empty input", func(t *testing.T) {
		b, err := NewBatcher(embedder)
		require.NoError(t, err)
		assert.Equal(t, 1, b.BatchSize(nil))
	})
}

func TestEmbed(t *testing.T) {
	t.Run("order preserved and batch-size independent", func(t *testing.T) {
		embedder := mock.NewEmbedder()
		texts := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

		single, err := NewBatcher(embedder)
		require.NoError(t, err)
		batched, err := NewBatcher(embedder,
			WithMemoryProbe(func() (int64, bool) { return 1 << 30, true }),
			WithMaxBatchSize(2))
		require.NoError(t, err)

		one, err := single.Embed(context.Background(), texts)
		require.NoError(t, err)
		two, err := batched.Embed(context.Background(), texts)
		require.NoError(t, err)

		require.Len(t, one, len(texts))
		assert.Equal(t, one, two, "embeddings must not depend on batch size")
	})

	t.Run("backend failure is fatal", func(t *testing.T) {
		embedder := mock.NewEmbedder()
		embedErr := errors.New("model unavailable")
		embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
			return nil, embedErr
		}

		b, err := NewBatcher(embedder)
		require.NoError(t, err)

		_, err = b.Embed(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, embedErr)
	})

	t.Run("nil embedder rejected", func(t *testing.T) {
		_, err := NewBatcher(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("empty input yields no vectors", func(t *testing.T) {
		b, err := NewBatcher(mock.NewEmbedder())
		require.NoError(t, err)
		vectors, err := b.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})
}
