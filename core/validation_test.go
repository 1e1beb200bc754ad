package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChunk(t *testing.T) {
	valid := Chunk{ID: NewChunkID(), Text: "some text", Source: "doc.pdf", Page: 1}

	t.Run("valid chunk passes", func(t *testing.T) {
		assert.NoError(t, ValidateChunk(&valid))
	})

	t.Run("nil chunk fails", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
	})

	t.Run("missing id fails", func(t *testing.T) {
		c := valid
		c.ID = ""
		assert.ErrorIs(t, ValidateChunk(&c), ErrInvalidChunk)
	})

	t.Run("empty text fails", func(t *testing.T) {
		c := valid
		c.Text = ""
		err := ValidateChunk(&c)
		assert.ErrorIs(t, err, ErrInvalidChunk)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("empty source fails", func(t *testing.T) {
		c := valid
		c.Source = ""
		assert.ErrorIs(t, ValidateChunk(&c), ErrEmptyFilename)
	})
}

func TestValidateDocumentRecord(t *testing.T) {
	valid := DocumentRecord{
		Filename:   "handbook.pdf",
		Department: "finance",
		ChunkCount: 12,
	}

	t.Run("valid record passes", func(t *testing.T) {
		assert.NoError(t, ValidateDocumentRecord(&valid))
	})

	t.Run("zero chunk count is valid", func(t *testing.T) {
		r := valid
		r.ChunkCount = 0
		assert.NoError(t, ValidateDocumentRecord(&r))
	})

	t.Run("nil record fails", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocumentRecord(nil), ErrInvalidDocumentRecord)
	})

	t.Run("empty filename fails", func(t *testing.T) {
		r := valid
		r.Filename = ""
		assert.ErrorIs(t, ValidateDocumentRecord(&r), ErrEmptyFilename)
	})

	t.Run("empty department fails", func(t *testing.T) {
		r := valid
		r.Department = ""
		assert.ErrorIs(t, ValidateDocumentRecord(&r), ErrEmptyDepartment)
	})

	t.Run("unnormalized department fails", func(t *testing.T) {
		r := valid
		r.Department = "Finance"
		assert.ErrorIs(t, ValidateDocumentRecord(&r), ErrInvalidDocumentRecord)
	})
}

func TestValidateQueryRecord(t *testing.T) {
	t.Run("valid record passes", func(t *testing.T) {
		r := QueryRecord{Query: "what is the refund policy?", Answer: "..."}
		assert.NoError(t, ValidateQueryRecord(&r))
	})

	t.Run("error answer is valid", func(t *testing.T) {
		r := QueryRecord{Query: "anything", Answer: "Error: generation failed"}
		assert.NoError(t, ValidateQueryRecord(&r))
	})

	t.Run("nil record fails", func(t *testing.T) {
		assert.ErrorIs(t, ValidateQueryRecord(nil), ErrInvalidQueryRecord)
	})

	t.Run("empty query fails", func(t *testing.T) {
		r := QueryRecord{Answer: "something"}
		assert.ErrorIs(t, ValidateQueryRecord(&r), ErrEmptyQuery)
	})
}
