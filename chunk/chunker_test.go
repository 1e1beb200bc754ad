package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragpipe/extract"
)

func TestNewChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewChunker()
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, c.size)
		assert.Equal(t, DefaultOverlap, c.overlap)
	})

	t.Run("overlap must be smaller than size", func(t *testing.T) {
		_, err := NewChunker(WithChunkSize(100), WithOverlap(100))
		assert.ErrorIs(t, err, ErrOverlapTooLarge)

		_, err = NewChunker(WithChunkSize(100), WithOverlap(150))
		assert.ErrorIs(t, err, ErrOverlapTooLarge)
	})

	t.Run("invalid size rejected", func(t *testing.T) {
		_, err := NewChunker(WithChunkSize(0))
		assert.ErrorIs(t, err, ErrInvalidChunkSize)
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		_, err := NewChunker(WithOverlap(-1))
		assert.ErrorIs(t, err, ErrOverlapTooLarge)
	})
}

func TestSplit(t *testing.T) {
	t.Run("short segment stays whole", func(t *testing.T) {
		c, err := NewChunker()
		require.NoError(t, err)

		chunks, err := c.Split([]extract.Segment{
			{Text: "a short paragraph of text", Page: 3},
		}, "policy.pdf")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "a short paragraph of text", chunks[0].Text)
		assert.Equal(t, "policy.pdf", chunks[0].Source)
		assert.Equal(t, 3, chunks[0].Page)
		assert.NotEmpty(t, chunks[0].ID)
	})

	t.Run("long text is split with overlap", func(t *testing.T) {
		c, err := NewChunker(WithChunkSize(1000), WithOverlap(200))
		require.NoError(t, err)

		// 3000 characters of uniform word soup, no natural break points
		// larger than a word.
		text := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 112))[:3000]
		chunks, err := c.Split([]extract.Segment{{Text: text, Page: 1}}, "big.txt")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(chunks), 3)

		for _, ch := range chunks {
			assert.LessOrEqual(t, len(ch.Text), 1000)
			assert.NotEmpty(t, ch.Text)
		}

		// Adjacent chunks share text: the tail of one reappears at the
		// head of the next.
		for i := 1; i < len(chunks); i++ {
			head := chunks[i].Text[:50]
			assert.Contains(t, chunks[i-1].Text, head,
				"chunk %d should overlap with chunk %d", i, i-1)
		}
	})

	t.Run("every chunk gets a distinct id", func(t *testing.T) {
		c, err := NewChunker(WithChunkSize(100), WithOverlap(20))
		require.NoError(t, err)

		text := strings.Repeat("some words here ", 50)
		chunks, err := c.Split([]extract.Segment{{Text: text, Page: 1}}, "dup.txt")
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		seen := make(map[string]bool)
		for _, ch := range chunks {
			assert.False(t, seen[ch.ID], "duplicate chunk id %s", ch.ID)
			seen[ch.ID] = true
		}
	})

	t.Run("zero segments yield zero chunks", func(t *testing.T) {
		c, err := NewChunker()
		require.NoError(t, err)

		chunks, err := c.Split(nil, "empty.txt")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("page markers survive splitting", func(t *testing.T) {
		c, err := NewChunker()
		require.NoError(t, err)

		chunks, err := c.Split([]extract.Segment{
			{Text: "page one content", Page: 1},
			{Text: "page two content", Page: 2},
		}, "multi.pdf")
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 1, chunks[0].Page)
		assert.Equal(t, 2, chunks[1].Page)
	})
}
