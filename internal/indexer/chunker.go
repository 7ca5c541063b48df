// Package indexer turns document text into embedded corpora and persists them.
package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/models"
)

const (
	// ParagraphBreak separates paragraphs in extracted text.
	ParagraphBreak = "\n\n"
	// SentenceBreak separates sentences within a paragraph. The marker itself is dropped.
	SentenceBreak = ". "
	// MinChars is the exclusive lower bound on the rune length of a kept segment.
	MinChars = 50
)

// Chunker splits document text into text units on paragraph and sentence boundaries.
type Chunker struct{}

// NewChunker creates a chunker.
func NewChunker() *Chunker {
	return &Chunker{}
}

// Chunk returns the text units of text in document order, numbered from 1.
// Segments of MinChars runes or fewer are discarded. The result is never nil.
func (c *Chunker) Chunk(text string) []models.TextUnit {
	units := make([]models.TextUnit, 0)
	for _, paragraph := range strings.Split(NormalizeNewlines(text), ParagraphBreak) {
		paragraph = Preprocess(paragraph)
		if paragraph == "" {
			continue
		}
		for _, segment := range strings.Split(paragraph, SentenceBreak) {
			segment = strings.TrimSpace(segment)
			if utf8.RuneCountInString(segment) <= MinChars {
				continue
			}
			units = append(units, models.TextUnit{
				Position: len(units) + 1,
				Text:     segment,
			})
		}
	}
	return units
}
