package vector

import (
	"sort"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/viterin/vek"
)

// Rank scores every record of corpus against query by cosine similarity and
// returns at most topK results, best first. Equal scores are ordered by
// ascending record ID.
//
// A record whose embedding length differs from the query fails the whole call
// with *DimensionMismatchError. topK <= 0 and an empty corpus both yield an
// empty result. The corpus is not modified.
func Rank(query []float32, corpus *models.Corpus, topK int) ([]models.RankedResult, error) {
	if topK <= 0 || corpus.Len() == 0 {
		return []models.RankedResult{}, nil
	}
	for _, rec := range corpus.Records {
		if len(rec.Embedding) != len(query) {
			return nil, &DimensionMismatchError{Want: len(query), Got: len(rec.Embedding), RecordID: rec.ID}
		}
	}

	q := vek.FromFloat32(query)
	qNorm := vek.Norm(q)
	results := make([]models.RankedResult, len(corpus.Records))
	for i, rec := range corpus.Records {
		results[i] = models.RankedResult{
			ID:    rec.ID,
			Text:  rec.Text,
			Score: cosine64(q, vek.FromFloat32(rec.Embedding), qNorm),
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}
