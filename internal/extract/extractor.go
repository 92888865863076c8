// Package extract provides text extraction from corpus document formats.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lu4p/cat"
)

// ErrBinaryContent is returned when a file routed to the plain-text path
// looks binary (NUL bytes). The loader records it as a warning and skips
// the file rather than indexing garbage terms.
var ErrBinaryContent = errors.New("binary content")

// ErrInvalidEncoding is returned when plain-text content is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Plain-text formats (.txt, .md, .rst and unknown extensions) are returned
// as-is after UTF-8 and binary checks. PDF, DOCX, XLSX, ODT, and RTF have
// their text pulled out of the binary format.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".odt", ".rtf":
		text, err := cat.File(path)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", strings.TrimPrefix(ext, "."), err)
		}
		return text, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		// .txt, .md, .rst, and anything unrecognized: treat as plain text.
		return extractPlain(content)
	}
}
