package embedding

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the text to embed is empty after trimming.
var ErrEmptyInput = errors.New("embedding: empty input")

/* ModelUnavailableError */

// ErrModelUnavailable marks failures to load or run the model. Callers may retry.
var ErrModelUnavailable = errors.New("embedding: model unavailable")

// ModelUnavailableError reports that the model could not be initialized or did not respond.
type ModelUnavailableError struct {
	Op  string
	Err error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("embedding model unavailable (%s)", e.Op)
	}
	return fmt.Sprintf("embedding model unavailable (%s): %v", e.Op, e.Err)
}

func (e *ModelUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrModelUnavailable}
	}
	return []error{ErrModelUnavailable, e.Err}
}

func newModelUnavailable(op string, err error) error {
	return &ModelUnavailableError{Op: op, Err: err}
}

/* InvalidEmbeddingError */

// ErrInvalidEmbedding marks model output that cannot be used as a vector.
var ErrInvalidEmbedding = errors.New("embedding: invalid embedding")

// InvalidEmbeddingError reports a vector with non-finite values or the wrong dimension.
type InvalidEmbeddingError struct {
	Reason string
}

func (e *InvalidEmbeddingError) Error() string {
	return fmt.Sprintf("invalid embedding: %s", e.Reason)
}

func (*InvalidEmbeddingError) Unwrap() error {
	return ErrInvalidEmbedding
}

// NewInvalidEmbeddingError returns an InvalidEmbeddingError with the given reason.
func NewInvalidEmbeddingError(format string, args ...any) error {
	return &InvalidEmbeddingError{Reason: fmt.Sprintf(format, args...)}
}
