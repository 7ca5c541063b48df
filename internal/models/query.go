package models

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultTopK is the number of answers returned when a query does not ask for a count.
	DefaultTopK = 3
	// MaxTopK caps the number of answers a single query may ask for.
	MaxTopK = 50
)

// ErrInvalidQuery is returned by Validate for queries that cannot be answered.
var ErrInvalidQuery = errors.New("invalid query")

// AskQuery is a question asked against one corpus.
type AskQuery struct {
	Key      string `json:"key"`
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate checks the query and fills in TopK.
// defaultTopK and maxTopK fall back to DefaultTopK and MaxTopK when not positive.
func (q *AskQuery) Validate(defaultTopK, maxTopK int) error {
	if strings.TrimSpace(q.Key) == "" {
		return fmt.Errorf("%w: corpus key cannot be empty", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question cannot be empty", ErrInvalidQuery)
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}
