package search

import (
	"strings"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// ProcessQuery normalizes the question, validates the query and applies the
// configured top_k defaults. cfg may be nil.
func ProcessQuery(query *models.AskQuery, cfg *config.SearchConfig) error {
	query.Key = strings.TrimSpace(query.Key)
	query.Question = strings.Join(strings.Fields(query.Question), " ")
	var defaultTopK, maxTopK int
	if cfg != nil {
		defaultTopK, maxTopK = cfg.DefaultTopK, cfg.MaxTopK
	}
	return query.Validate(defaultTopK, maxTopK)
}
