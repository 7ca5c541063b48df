package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStore keeps every corpus as one row of a SQLite table. The records
// column holds the same JSON array the file store writes.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS corpora (
		key TEXT PRIMARY KEY,
		records TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_corpora_created_at ON corpora(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Save inserts corpus under a new key. A key collision is retried with a fresh key.
func (s *SQLiteStore) Save(ctx context.Context, corpus *models.Corpus) (string, error) {
	data, err := EncodeRecords(corpus.Records)
	if err != nil {
		return "", err
	}
	for i := 0; i < maxKeyAttempts; i++ {
		now := s.now()
		key := NewKey(now)
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO corpora (key, records, record_count, dimensions, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			key, string(data), corpus.Len(), corpus.Dimensions(), now.UTC(),
		)
		if err == nil {
			return key, nil
		}
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			continue
		}
		return "", fmt.Errorf("failed to insert corpus: %w", err)
	}
	return "", errors.New("storage: could not generate an unused corpus key")
}

// Load reads and validates the corpus stored under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) (*models.Corpus, error) {
	key, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	var data string
	err = s.db.QueryRowContext(ctx, `SELECT records FROM corpora WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &CorpusNotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	records, err := DecodeRecords(key, []byte(data))
	if err != nil {
		return nil, err
	}
	return &models.Corpus{Key: key, Records: records}, nil
}

// List describes every stored corpus, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*models.CorpusInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, record_count, dimensions, length(records), created_at
		 FROM corpora ORDER BY created_at DESC, key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpora: %w", err)
	}
	defer rows.Close()

	infos := make([]*models.CorpusInfo, 0)
	for rows.Next() {
		var info models.CorpusInfo
		if err := rows.Scan(&info.Key, &info.RecordCount, &info.Dimensions, &info.SizeBytes, &info.CreatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
