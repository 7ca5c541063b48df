package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned for keys that could escape the store or name nothing.
var ErrInvalidKey = errors.New("storage: invalid corpus key")

/* CorpusNotFoundError */

// ErrCorpusNotFound marks a Load of a key with no stored corpus.
var ErrCorpusNotFound = errors.New("storage: corpus not found")

// CorpusNotFoundError reports a key with no stored corpus.
type CorpusNotFoundError struct {
	Key string
}

func (e *CorpusNotFoundError) Error() string {
	return fmt.Sprintf("corpus %q not found", e.Key)
}

func (*CorpusNotFoundError) Unwrap() error {
	return ErrCorpusNotFound
}

/* CorpusCorruptError */

// ErrCorpusCorrupt marks stored data that is not a well-formed record array.
var ErrCorpusCorrupt = errors.New("storage: corpus corrupt")

// CorpusCorruptError reports why stored data could not be read back as records.
type CorpusCorruptError struct {
	Key    string
	Reason string
}

func (e *CorpusCorruptError) Error() string {
	return fmt.Sprintf("corpus %q is corrupt: %s", e.Key, e.Reason)
}

func (*CorpusCorruptError) Unwrap() error {
	return ErrCorpusCorrupt
}

func corrupt(key, format string, args ...any) error {
	return &CorpusCorruptError{Key: key, Reason: fmt.Sprintf(format, args...)}
}
