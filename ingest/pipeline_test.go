package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragpipe/ai/mock"
	"github.com/poiesic/ragpipe/chunk"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/extract"
	badgerstore "github.com/poiesic/ragpipe/storage/badger"
	"github.com/poiesic/ragpipe/vectorstore"
	"github.com/poiesic/ragpipe/vectorstore/memory"
)

// failingStore wraps the memory store and fails every upsert.
type failingStore struct {
	*memory.Store
}

func (f *failingStore) Upsert(_ context.Context, _ []vectorstore.Point) error {
	return errors.New("store unreachable")
}

type testPipeline struct {
	pipeline *Pipeline
	store    *memory.Store
	embedder *mock.Embedder
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	docs, history, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		history.Close()
		docs.Close()
		backend.Close()
	})

	loader, err := extract.NewLoader()
	require.NoError(t, err)
	chunker, err := chunk.NewChunker(chunk.WithChunkSize(1000), chunk.WithOverlap(200))
	require.NoError(t, err)

	embedder := mock.NewEmbedder()
	batcher, err := NewBatcher(embedder)
	require.NoError(t, err)

	store := memory.NewStore()

	pipeline, err := NewPipeline(loader, chunker, batcher, store, docs)
	require.NoError(t, err)

	return &testPipeline{pipeline: pipeline, store: store, embedder: embedder}
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// uniformText builds deterministic filler text of exactly n characters with
// no paragraph breaks, so chunking falls back to size-based cuts.
func uniformText(n int) string {
	return strings.Repeat("lorem ipsum dolor sit amet consectetur ", n/39+1)[:n]
}

func TestIngest(t *testing.T) {
	t.Run("plain text document", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "notes.txt", "a short note about expenses")

		result, err := tp.pipeline.Ingest(context.Background(), path, "finance")
		require.NoError(t, err)
		assert.Equal(t, core.IngestStatusSuccess, result.Status)
		assert.Equal(t, core.IDFromContent("notes.txt"), result.DocumentID)
		assert.Equal(t, 1, result.ChunkCount)
		assert.Equal(t, 1, tp.store.Len())
	})

	t.Run("3000-char document yields four chunks", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "big.txt", uniformText(3000))

		result, err := tp.pipeline.Ingest(context.Background(), path, "ops")
		require.NoError(t, err)
		assert.Equal(t, core.IngestStatusSuccess, result.Status)
		assert.Equal(t, 4, result.ChunkCount)
		assert.Equal(t, 4, tp.store.Len())
	})

	t.Run("re-ingestion replaces vectors instead of accumulating", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "repeat.txt", "stable document content")

		first, err := tp.pipeline.Ingest(context.Background(), path, "hr")
		require.NoError(t, err)
		second, err := tp.pipeline.Ingest(context.Background(), path, "hr")
		require.NoError(t, err)

		assert.Equal(t, first.DocumentID, second.DocumentID)
		assert.Equal(t, core.IngestStatusSuccess, second.Status)
		assert.Equal(t, 1, tp.store.Len(), "old points must be replaced, not kept")
	})

	t.Run("empty document is a soft no-content failure", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "blank.txt", "   \n  ")

		result, err := tp.pipeline.Ingest(context.Background(), path, "hr")
		require.NoError(t, err)
		assert.Equal(t, core.IngestStatusError, result.Status)
		assert.Contains(t, result.ErrorMessage, "no ingestible content")
		assert.Zero(t, tp.store.Len())
		assert.Zero(t, tp.embedder.CallCount(), "embedding must not run for empty documents")
	})

	t.Run("unsupported file type fails the run", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "deck.pptx", "not really a deck")

		result, err := tp.pipeline.Ingest(context.Background(), path, "hr")
		require.NoError(t, err)
		assert.Equal(t, core.IngestStatusError, result.Status)
		assert.Contains(t, result.ErrorMessage, "unsupported file type")
	})

	t.Run("embedding failure aborts before writing", func(t *testing.T) {
		tp := newTestPipeline(t)
		tp.embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
			return nil, errors.New("embedding backend down")
		}
		path := writeTestFile(t, "doomed.txt", "some content")

		result, err := tp.pipeline.Ingest(context.Background(), path, "hr")
		require.NoError(t, err)
		assert.Equal(t, core.IngestStatusError, result.Status)
		assert.Zero(t, tp.store.Len())
	})

	t.Run("store failure fails the run", func(t *testing.T) {
		loader, err := extract.NewLoader()
		require.NoError(t, err)
		chunker, err := chunk.NewChunker()
		require.NoError(t, err)
		batcher, err := NewBatcher(mock.NewEmbedder())
		require.NoError(t, err)

		pipeline, err := NewPipeline(loader, chunker, batcher,
			&failingStore{memory.NewStore()}, nil)
		require.NoError(t, err)

		path := writeTestFile(t, "unwritable.txt", "content")
		result, err := pipeline.Ingest(context.Background(), path, "hr")
		require.NoError(t, err)
		assert.Equal(t, core.IngestStatusError, result.Status)
		assert.Contains(t, result.ErrorMessage, "store unreachable")
	})

	t.Run("empty department rejected", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "nodept.txt", "content")

		_, err := tp.pipeline.Ingest(context.Background(), path, "   ")
		assert.Error(t, err)
	})

	t.Run("department is stored normalized", func(t *testing.T) {
		tp := newTestPipeline(t)
		path := writeTestFile(t, "cased.txt", "content for the finance team")

		_, err := tp.pipeline.Ingest(context.Background(), path, "  FinAnce ")
		require.NoError(t, err)

		vector, err := tp.embedder.EmbedText(context.Background(), "content for the finance team")
		require.NoError(t, err)
		hits, err := tp.store.Search(context.Background(), vector, "finance", 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "finance", hits[0].Payload.Department)
		assert.Equal(t, "cased.txt", hits[0].Payload.Source)
	})
}

func TestNewPipelineValidation(t *testing.T) {
	loader, err := extract.NewLoader()
	require.NoError(t, err)
	chunker, err := chunk.NewChunker()
	require.NoError(t, err)
	batcher, err := NewBatcher(mock.NewEmbedder())
	require.NoError(t, err)
	store := memory.NewStore()

	_, err = NewPipeline(nil, chunker, batcher, store, nil)
	assert.ErrorIs(t, err, ErrLoaderRequired)
	_, err = NewPipeline(loader, nil, batcher, store, nil)
	assert.ErrorIs(t, err, ErrChunkerRequired)
	_, err = NewPipeline(loader, chunker, nil, store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewPipeline(loader, chunker, batcher, nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}
