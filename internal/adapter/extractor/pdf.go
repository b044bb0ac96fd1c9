// Package extractor pulls the text layer out of PDF documents. Scanned
// documents without a text layer produce empty text; no OCR is attempted.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdfchat/internal/domain"
)

// PDFExtractor extracts text from a PDF byte stream, page by page.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the concatenation of every page's text, each page's text
// followed by a newline, in page order. Corrupt or encrypted documents fail
// the whole extraction; no partial text is returned.
func (e *PDFExtractor) Extract(data []byte, filename string) (text string, err error) {
	// The underlying parser panics on some malformed cross-reference
	// tables; fold that into the normal error path.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &domain.ExtractionError{Filename: filename, Err: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &domain.ExtractionError{Filename: filename, Err: err}
	}

	text, err = joinPages(reader.NumPage(), func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
	if err != nil {
		return "", &domain.ExtractionError{Filename: filename, Err: err}
	}
	return text, nil
}

// joinPages concatenates page texts in page order, each followed by a
// newline. Pages without a text layer still contribute their newline so the
// output keeps one line group per page.
func joinPages(numPages int, pageText func(i int) (string, error)) (string, error) {
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		content, err := pageText(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
