package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// docxDocumentXML is the path of the main document body inside a .docx zip.
const docxDocumentXML = "word/document.xml"

// wtTag matches <w:t>text</w:t> including variants with attributes such as
// <w:t xml:space="preserve">. Extracting the text nodes directly keeps
// content readable regardless of paragraph or run attributes, which trip up
// the available docx libraries on real-world files.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// loadDocx extracts the document body text of a .docx (or OOXML .doc) file
// as a single segment.
func (l *Loader) loadDocx(path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: not an OOXML document: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXML {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", f.Name, filepath.Base(path), err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", f.Name, filepath.Base(path), err)
		}
		break
	}
	if docXML == nil {
		return nil, fmt.Errorf("%s: %s not found", filepath.Base(path), docxDocumentXML)
	}

	parts := wtTag.FindAllStringSubmatch(string(docXML), -1)
	if len(parts) == 0 {
		return &Result{}, nil
	}

	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p[1])
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return &Result{}, nil
	}
	return &Result{Segments: []Segment{{Text: text, Page: 1}}}, nil
}
