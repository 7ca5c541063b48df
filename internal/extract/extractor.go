// Package extract turns document files into plain text for corpus building.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the extensions with a dedicated extractor.
// Anything else is read as plain text.
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".rst", ".docx", ".xlsx", ".pptx", ".odt", ".odp", ".ods"}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Paragraph boundaries the
// format exposes are kept as blank lines.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var buf Buffer
	var err error
	switch strings.ToLower(ext) {
	case ".pdf":
		err = extractPDF(content, &buf)
	case ".docx":
		err = extractDOCX(content, &buf)
	case ".xlsx":
		err = extractExcel(content, &buf)
	case ".pptx":
		err = extractPPTX(content, &buf)
	case ".odt", ".odp", ".ods":
		err = extractOpenDocument(content, &buf)
	default:
		extractPlain(content, &buf)
	}
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
