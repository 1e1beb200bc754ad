package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOCR returns canned text per image path.
type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) ImageText(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadText(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)

	t.Run("plain text file becomes a single segment", func(t *testing.T) {
		path := writeTempFile(t, "notes.txt", "  hello world\nsecond line  ")

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Segments, 1)
		assert.Equal(t, "hello world\nsecond line", result.Segments[0].Text)
		assert.Equal(t, 1, result.Segments[0].Page)
		assert.False(t, result.OCRApplied)
	})

	t.Run("empty file yields zero segments", func(t *testing.T) {
		path := writeTempFile(t, "empty.txt", "   \n\t ")

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		assert.Empty(t, result.Segments)
	})
}

func TestLoadCSV(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)

	t.Run("rows are rendered with header labels", func(t *testing.T) {
		path := writeTempFile(t, "staff.csv",
			"name,role\nAda,engineer\nGrace,admiral\n")

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Segments, 2)
		assert.Equal(t, "name: Ada, role: engineer", result.Segments[0].Text)
		assert.Equal(t, "name: Grace, role: admiral", result.Segments[1].Text)
		assert.Equal(t, 1, result.Segments[0].Page)
		assert.Equal(t, 2, result.Segments[1].Page)
	})

	t.Run("single row file is emitted as-is", func(t *testing.T) {
		path := writeTempFile(t, "one.csv", "alpha,beta,gamma\n")

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Segments, 1)
		assert.Equal(t, "alpha, beta, gamma", result.Segments[0].Text)
	})

	t.Run("ragged rows and blank cells are tolerated", func(t *testing.T) {
		path := writeTempFile(t, "ragged.csv",
			"a,b\n1,,extra\n,\n2,3\n")

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Segments, 2)
		assert.Equal(t, "a: 1, extra", result.Segments[0].Text)
		assert.Equal(t, "a: 2, b: 3", result.Segments[1].Text)
	})
}

func TestLoadDocx(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)

	writeDocx := func(t *testing.T, documentXML string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "report.docx")
		f, err := os.Create(path)
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		w, err := zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(documentXML))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())
		return path
	}

	t.Run("text nodes are joined into one segment", func(t *testing.T) {
		path := writeDocx(t, `<w:document><w:body>`+
			`<w:p><w:r><w:t>Quarterly</w:t></w:r><w:r><w:t xml:space="preserve">results</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>improved.</w:t></w:r></w:p>`+
			`</w:body></w:document>`)

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Segments, 1)
		assert.Equal(t, "Quarterly results improved.", result.Segments[0].Text)
	})

	t.Run("document without text nodes yields zero segments", func(t *testing.T) {
		path := writeDocx(t, `<w:document><w:body></w:body></w:document>`)

		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		assert.Empty(t, result.Segments)
	})

	t.Run("non-zip file is rejected", func(t *testing.T) {
		path := writeTempFile(t, "broken.docx", "not a zip archive")

		_, err := loader.Load(context.Background(), path)
		assert.Error(t, err)
	})
}

func TestLoadImage(t *testing.T) {
	t.Run("ocr output becomes a segment", func(t *testing.T) {
		ocr := &fakeOCR{text: " scanned invoice total 42 "}
		loader, err := NewLoader(WithOCR(ocr))
		require.NoError(t, err)

		path := writeTempFile(t, "scan.png", "fake image bytes")
		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Segments, 1)
		assert.Equal(t, "scanned invoice total 42", result.Segments[0].Text)
		assert.True(t, result.Segments[0].OCR)
		assert.True(t, result.OCRApplied)
		assert.Equal(t, 1, ocr.calls)
	})

	t.Run("empty ocr output is not an error", func(t *testing.T) {
		loader, err := NewLoader(WithOCR(&fakeOCR{text: "   "}))
		require.NoError(t, err)

		path := writeTempFile(t, "blank.jpg", "fake image bytes")
		result, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		assert.Empty(t, result.Segments)
		assert.True(t, result.OCRApplied)
	})

	t.Run("images without an ocr engine are rejected", func(t *testing.T) {
		loader, err := NewLoader()
		require.NoError(t, err)

		path := writeTempFile(t, "scan.tiff", "fake image bytes")
		_, err = loader.Load(context.Background(), path)
		assert.ErrorIs(t, err, ErrOCRUnavailable)
	})

	t.Run("ocr failure propagates", func(t *testing.T) {
		ocrErr := errors.New("tesseract crashed")
		loader, err := NewLoader(WithOCR(&fakeOCR{err: ocrErr}))
		require.NoError(t, err)

		path := writeTempFile(t, "scan.bmp", "fake image bytes")
		_, err = loader.Load(context.Background(), path)
		assert.ErrorIs(t, err, ocrErr)
	})
}

func TestLoadUnsupported(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "presentation.pptx")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLoaderOptions(t *testing.T) {
	t.Run("negative min image bytes is rejected", func(t *testing.T) {
		_, err := NewLoader(WithMinImageBytes(-1))
		assert.Error(t, err)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		loader, err := NewLoader(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, loader.logger)
	})
}
