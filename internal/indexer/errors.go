package indexer

import (
	"errors"
	"fmt"
)

// ErrEmbeddingProvider marks a corpus build aborted by an embedding failure.
var ErrEmbeddingProvider = errors.New("indexer: embedding provider failed")

// EmbeddingProviderError reports the text unit whose embedding failed. The
// provider's error is kept, so errors.Is still matches its kind.
type EmbeddingProviderError struct {
	Position int
	Err      error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding text unit %d: %v", e.Position, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() []error {
	return []error{ErrEmbeddingProvider, e.Err}
}

// ErrExtraction marks a document whose text could not be extracted.
var ErrExtraction = errors.New("indexer: text extraction failed")

// ErrUnsupportedExtension is returned for files outside the configured extension list.
var ErrUnsupportedExtension = errors.New("indexer: unsupported file extension")
