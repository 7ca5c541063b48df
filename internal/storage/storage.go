// Package storage persists corpora and loads them back by key.
package storage

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// Store persists corpora. A saved corpus is never modified; each Save creates a new key.
//
// Concurrent writers to the same key are not supported. Keys are generated
// fresh for every Save, so this only matters when files are written by hand.
type Store interface {
	// Save persists corpus under a newly generated key and returns the key.
	Save(ctx context.Context, corpus *models.Corpus) (string, error)
	// Load returns the corpus stored under key. It fails with *CorpusNotFoundError
	// when nothing is stored there and *CorpusCorruptError when the data is malformed.
	Load(ctx context.Context, key string) (*models.Corpus, error)
	// List describes every stored corpus, newest first.
	List(ctx context.Context) ([]*models.CorpusInfo, error)
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	// BackendFile stores one JSON file per corpus. Compatible with pdf_data/ directories.
	BackendFile Backend = "file"
	// BackendSQLite stores every corpus as a row in one SQLite database.
	BackendSQLite Backend = "sqlite"
)

// NewStore creates the store selected by cfg.Backend.
func NewStore(cfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch Backend(cfg.Backend) {
	case BackendFile, "":
		return NewFileStore(cfg.DataDir, logger)
	case BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, sqlite)", cfg.Backend)
	}
}
