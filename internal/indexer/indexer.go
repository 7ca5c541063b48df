package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

// Indexer extracts documents, builds their corpora and saves them to a store.
// Every ingestion creates a new corpus; nothing is ever updated in place.
type Indexer struct {
	builder    *Builder
	store      storage.Store
	extractor  *extract.Extractor
	extensions []string
	logger     *zap.Logger

	mu   sync.Mutex
	seen map[string]fileStamp
}

// fileStamp identifies the version of a file that was last ingested.
type fileStamp struct {
	size    int64
	modTime int64
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithExtensions restricts file ingestion to the given extensions (case-insensitive,
// leading dot optional). An empty list allows every file.
func WithExtensions(exts []string) IndexerOption {
	return func(idx *Indexer) { idx.extensions = exts }
}

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) {
		if e != nil {
			idx.extractor = e
		}
	}
}

// NewIndexer creates an indexer that builds with builder and saves to store.
func NewIndexer(builder *Builder, store storage.Store, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		builder:   builder,
		store:     store,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
		seen:      make(map[string]fileStamp),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IngestText builds a corpus from text and saves it. source is only used for
// logging and the result; it may be empty. On any failure nothing is saved.
func (idx *Indexer) IngestText(ctx context.Context, source, text string) (*models.IngestResult, error) {
	start := time.Now()
	idx.logger.Debug("indexer ingest started", zap.String("source", source), zap.Int("bytes", len(text)))

	corpus, err := idx.builder.Build(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}
	key, err := idx.store.Save(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}

	idx.logger.Info("indexer ingest finished",
		zap.String("key", key),
		zap.String("source", source),
		zap.Int("records", corpus.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return &models.IngestResult{Key: key, Source: source, Records: corpus.Len()}, nil
}

// IngestFile extracts the file at path and ingests its text. The extension must
// be in the configured list. Returns an error if path is not a regular file.
func (idx *Indexer) IngestFile(ctx context.Context, path string) (*models.IngestResult, error) {
	absPath, info, err := idx.checkFile(path)
	if err != nil {
		return nil, err
	}
	res, err := idx.ingestFile(ctx, absPath)
	if err != nil {
		return nil, err
	}
	idx.remember(absPath, info)
	return res, nil
}

// IngestBytes ingests uploaded content. name is the client's file name and
// selects the extractor by its extension.
func (idx *Indexer) IngestBytes(ctx context.Context, name string, content []byte) (*models.IngestResult, error) {
	if !idx.Allowed(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(name))
	}
	text, err := idx.extractor.ExtractBytes(content, filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtraction, filepath.Base(name), err)
	}
	return idx.IngestText(ctx, filepath.Base(name), text)
}

// IngestFileIfChanged ingests path unless the same size and modification time
// were already ingested by this indexer. skipped reports whether it did nothing.
func (idx *Indexer) IngestFileIfChanged(ctx context.Context, path string) (res *models.IngestResult, skipped bool, err error) {
	absPath, info, err := idx.checkFile(path)
	if err != nil {
		return nil, false, err
	}
	if idx.unchanged(absPath, info) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return nil, true, nil
	}
	res, err = idx.ingestFile(ctx, absPath)
	if err != nil {
		return nil, false, err
	}
	idx.remember(absPath, info)
	return res, false, nil
}

// IngestDirectory walks dir recursively and ingests each regular file with an
// allowed extension, one corpus per file. It stops at the first failure and
// returns the results gathered so far with the error.
func (idx *Indexer) IngestDirectory(ctx context.Context, dir string) ([]*models.IngestResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	var results []*models.IngestResult
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !idx.Allowed(path) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, ingestErr := idx.IngestFile(ctx, path)
		if ingestErr != nil {
			return ingestErr
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

// Allowed reports whether path has an extension this indexer ingests.
func (idx *Indexer) Allowed(path string) bool {
	if len(idx.extensions) == 0 {
		return true
	}
	return extensionAllowed(filepath.Ext(path), idx.extensions)
}

func (idx *Indexer) ingestFile(ctx context.Context, absPath string) (*models.IngestResult, error) {
	text, err := idx.extractor.Extract(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtraction, filepath.Base(absPath), err)
	}
	return idx.IngestText(ctx, absPath, text)
}

func (idx *Indexer) checkFile(path string) (string, os.FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("absolute path: %w", err)
	}
	if !idx.Allowed(absPath) {
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	return absPath, info, nil
}

func (idx *Indexer) unchanged(absPath string, info os.FileInfo) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	stamp, ok := idx.seen[absPath]
	return ok && stamp == fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
}

func (idx *Indexer) remember(absPath string, info os.FileInfo) {
	idx.mu.Lock()
	idx.seen[absPath] = fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
	idx.mu.Unlock()
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
