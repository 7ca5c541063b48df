package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

const maxKeyAttempts = 5

// FileStore keeps one <key>.json file per corpus in a directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileStore opens dir, creating it if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage: data directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the directory holding the corpus files.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes corpus to a new file. The file is written under a temporary
// name and renamed into place, so readers never see a partial corpus.
func (s *FileStore) Save(ctx context.Context, corpus *models.Corpus) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := EncodeRecords(corpus.Records)
	if err != nil {
		return "", err
	}

	key, path, err := s.freshPath()
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".corpus-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to sync corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close corpus: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to store corpus: %w", err)
	}

	s.logger.Debug("corpus saved", zap.String("key", key), zap.Int("records", len(corpus.Records)))
	return key, nil
}

func (s *FileStore) freshPath() (string, string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key := NewKey(s.now())
		path := s.path(key)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return key, path, nil
		} else if err != nil {
			return "", "", fmt.Errorf("failed to check corpus file: %w", err)
		}
	}
	return "", "", errors.New("storage: could not generate an unused corpus key")
}

// Load reads and validates the corpus stored under key.
func (s *FileStore) Load(ctx context.Context, key string) (*models.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &CorpusNotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	records, err := DecodeRecords(key, data)
	if err != nil {
		return nil, err
	}
	return &models.Corpus{Key: key, Records: records}, nil
}

// List describes every readable corpus in the directory. Corrupt files are
// logged and left out.
func (s *FileStore) List(ctx context.Context) ([]*models.CorpusInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	infos := make([]*models.CorpusInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		key, err := NormalizeKey(name)
		if err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(s.path(key))
		if err != nil {
			s.logger.Warn("skipping unreadable corpus", zap.String("key", key), zap.Error(err))
			continue
		}
		records, err := DecodeRecords(key, data)
		if err != nil {
			s.logger.Warn("skipping corrupt corpus", zap.String("key", key), zap.Error(err))
			continue
		}
		created, ok := keyTime(key)
		if !ok {
			created = fi.ModTime()
		}
		c := models.Corpus{Key: key, Records: records}
		infos = append(infos, &models.CorpusInfo{
			Key:         key,
			RecordCount: c.Len(),
			Dimensions:  c.Dimensions(),
			SizeBytes:   fi.Size(),
			CreatedAt:   created,
		})
	}
	sortInfos(infos)
	return infos, nil
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func sortInfos(infos []*models.CorpusInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].Key < infos[j].Key
	})
}
