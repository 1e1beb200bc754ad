package ragpipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragpipe/ai/mock"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/query"
	"github.com/poiesic/ragpipe/vectorstore/memory"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := NewEngine(context.Background(), t.TempDir(),
		WithInMemoryDB(),
		WithProvider(mock.NewProvider()),
		WithVectorStore(memory.NewStore()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngineEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	path := writeTestFile(t, "handbook.txt",
		"Vacation requests must be submitted two weeks in advance.")

	ingested, err := engine.Ingest(ctx, path, "HR")
	require.NoError(t, err)
	require.Equal(t, core.IngestStatusSuccess, ingested.Status)
	assert.Equal(t, 1, ingested.ChunkCount)

	record, err := engine.DocumentRepository().GetDocumentByFilename(ctx, "handbook.txt")
	require.NoError(t, err)
	assert.Equal(t, "hr", record.Department)
	assert.Equal(t, 1, record.ChunkCount)

	result, err := engine.Query(ctx,
		"Vacation requests must be submitted two weeks in advance.", "hr")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)
	require.NotEmpty(t, result.Sources)
	assert.Equal(t, "handbook.txt", result.Sources[0].DocumentName)
	assert.NotZero(t, result.HistoryID)

	history, err := engine.HistoryRepository().GetRecentQueryRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.Answer, history[0].Answer)
}

func TestEngineDimensionMismatch(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.EnsureCollection(context.Background(), 8))

	_, err := NewEngine(context.Background(), t.TempDir(),
		WithInMemoryDB(),
		WithProvider(mock.NewProvider()),
		WithVectorStore(store))
	require.Error(t, err, "collection dimension must match the embedding model")
}

func TestEngineQueryPipelineOptions(t *testing.T) {
	engine := newTestEngine(t)

	pipeline, err := engine.NewQueryPipeline()
	require.NoError(t, err)
	assert.NotNil(t, pipeline)

	_, err = engine.NewQueryPipeline(query.WithTopK(0))
	assert.Error(t, err, "invalid pipeline options must surface")
}
