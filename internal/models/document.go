// Package models defines the data carried between the chunker, the corpus builder, the store and the ranker.
package models

import "time"

// TextUnit is one retrievable segment of a document.
// Position is 1-based and dense in document order.
type TextUnit struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// CorpusRecord is a persisted text unit with its embedding.
// The JSON shape matches the on-disk corpus format.
type CorpusRecord struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Corpus is the ordered set of records built from one document.
// A corpus is never modified after it has been built.
type Corpus struct {
	Key     string         `json:"key"`
	Records []CorpusRecord `json:"records"`
}

// Dimensions returns the embedding dimension of the first record, or 0 for an empty corpus.
func (c *Corpus) Dimensions() int {
	if c == nil || len(c.Records) == 0 {
		return 0
	}
	return len(c.Records[0].Embedding)
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// CorpusInfo describes a stored corpus for listings.
type CorpusInfo struct {
	Key         string    `json:"key"`
	RecordCount int       `json:"record_count"`
	Dimensions  int       `json:"dimensions"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// IngestResult is returned after a document has been built and saved.
type IngestResult struct {
	Key     string `json:"key"`
	Source  string `json:"source,omitempty"`
	Records int    `json:"records"`
}
