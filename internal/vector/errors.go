package vector

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch marks a query vector whose length differs from the corpus embeddings.
var ErrDimensionMismatch = errors.New("vector: dimension mismatch")

// DimensionMismatchError reports the first record whose embedding length differs from the query.
// It usually means the corpus was built with a different model than the one answering the query.
type DimensionMismatchError struct {
	Want     int
	Got      int
	RecordID int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: query has %d dimensions, record %d has %d", e.Want, e.RecordID, e.Got)
}

func (*DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}
