// Package resume turns uploaded resumes into plain text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxUploadSize caps resume uploads.
const MaxUploadSize = 5 << 20

// Errors returned when a resume cannot be read.
var (
	ErrNoText      = errors.New("no text content found in PDF")
	ErrUnsupported = errors.New("unsupported resume format")
)

// Document is the text extracted from a resume.
type Document struct {
	Text      string `json:"text"`
	PageCount int    `json:"pageCount"`
}

// ExtractText reads every page of the PDF in r. Pages that fail to decode are skipped.
func ExtractText(r io.ReaderAt, size int64) (doc *Document, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("failed to parse PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	text := CleanText(b.String())
	if text == "" {
		return nil, ErrNoText
	}
	return &Document{Text: text, PageCount: total}, nil
}

// ReadFile loads a resume from disk. PDFs are extracted; .txt and .md files are read as-is.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		doc, err := ExtractText(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	case ".txt", ".md", "":
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
