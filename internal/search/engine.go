// Package search answers questions against stored corpora.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Engine ranks the records of a stored corpus against a question.
type Engine struct {
	store    storage.Store
	embedder embedding.Embedder
	config   *config.SearchConfig
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for ask events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Store, embedder embedding.Embedder, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		embedder: embedder,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask embeds the question and returns the top_k most similar records of the
// corpus stored under query.Key. An empty corpus yields an empty answer
// without calling the embedder.
//
// Store errors (*storage.CorpusNotFoundError, *storage.CorpusCorruptError),
// embedding errors and *vector.DimensionMismatchError are returned wrapped,
// so errors.Is matches their kind.
func (e *Engine) Ask(ctx context.Context, query *models.AskQuery) (*models.AskResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	corpus, err := e.store.Load(ctx, query.Key)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	response := &models.AskResponse{
		Key:      corpus.Key,
		Question: query.Question,
		Answer:   []models.RankedResult{},
	}
	if corpus.Len() > 0 {
		queryEmbedding, err := e.embedder.Embed(ctx, query.Question)
		if err != nil {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		response.Answer, err = vector.Rank(queryEmbedding, corpus, query.TopK)
		if err != nil {
			return nil, fmt.Errorf("rank corpus %s: %w", corpus.Key, err)
		}
	}
	response.QueryTime = time.Since(startTime).Milliseconds()

	e.logger.Debug("search ask",
		zap.String("key", corpus.Key),
		zap.Int("top_k", query.TopK),
		zap.Int("results", len(response.Answer)),
		zap.Int64("query_time_ms", response.QueryTime),
	)
	return response, nil
}
