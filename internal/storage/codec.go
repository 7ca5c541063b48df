package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperjump/kotae/internal/models"
)

// wireRecord mirrors models.CorpusRecord with every field optional, so a
// missing field can be told apart from a zero value.
type wireRecord struct {
	ID        json.RawMessage `json:"id"`
	Text      *string         `json:"text"`
	Embedding json.RawMessage `json:"embedding"`
}

// EncodeRecords serializes records as an indented JSON array of {id, text, embedding}.
// float32 values are written with float32 precision and read back exactly.
func EncodeRecords(records []models.CorpusRecord) ([]byte, error) {
	if records == nil {
		records = []models.CorpusRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode corpus: %w", err)
	}
	return data, nil
}

// DecodeRecords parses data written by EncodeRecords and checks it is a
// well-formed corpus: ids 1..N in order, text present, non-empty finite
// vectors of one dimension. Anything else is a *CorpusCorruptError for key.
func DecodeRecords(key string, data []byte) ([]models.CorpusRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, corrupt(key, "no record array")
	}
	var wire []*wireRecord
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, corrupt(key, "not a record array: %v", err)
	}

	records := make([]models.CorpusRecord, 0, len(wire))
	dims := 0
	for i, w := range wire {
		if w == nil {
			return nil, corrupt(key, "record %d is null", i)
		}
		if len(w.ID) == 0 {
			return nil, corrupt(key, "record %d has no id", i)
		}
		id, err := strconv.Atoi(string(w.ID))
		if err != nil {
			return nil, corrupt(key, "record %d has non-integer id %s", i, w.ID)
		}
		if id != i+1 {
			return nil, corrupt(key, "record %d has id %d, want %d (ids must be 1..N without gaps or repeats)", i, id, i+1)
		}
		if w.Text == nil {
			return nil, corrupt(key, "record %d has no text", id)
		}
		if len(w.Embedding) == 0 || bytes.Equal(w.Embedding, []byte("null")) {
			return nil, corrupt(key, "record %d has no embedding", id)
		}
		var values []*float32
		if err := json.Unmarshal(w.Embedding, &values); err != nil {
			return nil, corrupt(key, "record %d has a non-numeric embedding: %v", id, err)
		}
		if len(values) == 0 {
			return nil, corrupt(key, "record %d has an empty embedding", id)
		}
		if dims == 0 {
			dims = len(values)
		} else if len(values) != dims {
			return nil, corrupt(key, "record %d has %d dimensions, want %d", id, len(values), dims)
		}
		embedding := make([]float32, len(values))
		for j, v := range values {
			if v == nil {
				return nil, corrupt(key, "record %d has a null embedding value at index %d", id, j)
			}
			embedding[j] = *v
		}
		records = append(records, models.CorpusRecord{ID: id, Text: *w.Text, Embedding: embedding})
	}
	return records, nil
}
