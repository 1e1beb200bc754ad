package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.HistoryRepository) {
	t.Helper()
	docs, history, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		history.Close()
		docs.Close()
		backend.Close()
	})
	return docs, history
}

func TestSaveDocument(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	t.Run("insert assigns id from filename", func(t *testing.T) {
		record, err := docs.SaveDocument(ctx, &core.DocumentRecord{
			Filename:      "handbook.pdf",
			Department:    "hr",
			ChunkCount:    10,
			FileSizeBytes: 2048,
		})
		require.NoError(t, err)
		assert.Equal(t, core.IDFromContent("handbook.pdf"), record.Id)
		assert.False(t, record.CreatedAt.IsZero())
		assert.Equal(t, record.CreatedAt, record.UpdatedAt)
	})

	t.Run("re-saving the same filename updates in place", func(t *testing.T) {
		first, err := docs.SaveDocument(ctx, &core.DocumentRecord{
			Filename:   "policy.pdf",
			Department: "legal",
			ChunkCount: 5,
		})
		require.NoError(t, err)

		second, err := docs.SaveDocument(ctx, &core.DocumentRecord{
			Filename:   "policy.pdf",
			Department: "legal",
			ChunkCount: 8,
		})
		require.NoError(t, err)

		assert.Equal(t, first.Id, second.Id)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)

		stored, err := docs.GetDocumentByFilename(ctx, "policy.pdf")
		require.NoError(t, err)
		assert.Equal(t, 8, stored.ChunkCount)
	})

	t.Run("department is normalized on save", func(t *testing.T) {
		record, err := docs.SaveDocument(ctx, &core.DocumentRecord{
			Filename:   "onboarding.docx",
			Department: "  Engineering ",
		})
		require.NoError(t, err)
		assert.Equal(t, "engineering", record.Department)
	})

	t.Run("missing filename rejected", func(t *testing.T) {
		_, err := docs.SaveDocument(ctx, &core.DocumentRecord{Department: "hr"})
		assert.ErrorIs(t, err, core.ErrInvalidDocumentRecord)
	})
}

func TestGetDocument(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := docs.SaveDocument(ctx, &core.DocumentRecord{
		Filename:   "benefits.pdf",
		Department: "hr",
	})
	require.NoError(t, err)

	t.Run("by filename", func(t *testing.T) {
		record, err := docs.GetDocumentByFilename(ctx, "benefits.pdf")
		require.NoError(t, err)
		assert.Equal(t, "benefits.pdf", record.Filename)
	})

	t.Run("unknown filename returns not found", func(t *testing.T) {
		_, err := docs.GetDocumentByFilename(ctx, "nope.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestListDocuments(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	for _, name := range []string{"zebra.txt", "alpha.txt", "middle.txt"} {
		_, err := docs.SaveDocument(ctx, &core.DocumentRecord{
			Filename:   name,
			Department: "ops",
		})
		require.NoError(t, err)
	}

	records, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "alpha.txt", records[0].Filename)
	assert.Equal(t, "middle.txt", records[1].Filename)
	assert.Equal(t, "zebra.txt", records[2].Filename)
}

func TestDeleteDocument(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	record, err := docs.SaveDocument(ctx, &core.DocumentRecord{
		Filename:   "retired.pdf",
		Department: "hr",
	})
	require.NoError(t, err)

	require.NoError(t, docs.DeleteDocument(ctx, record.Id))

	_, err = docs.GetDocument(ctx, record.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, docs.DeleteDocument(ctx, record.Id), storage.ErrNotFound)
}
