package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	keyPrefix = "corpus_"
	fileExt   = ".json"
	maxKeyLen = 200
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// NewKey returns a fresh corpus key: the creation time in Unix milliseconds
// followed by eight random hex digits.
func NewKey(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", keyPrefix, now.UnixMilli(), uuid.New().String()[:8])
}

// NormalizeKey validates key and strips a trailing ".json", so file names
// written by earlier versions (pdf_<millis>.json) are accepted as keys.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimSuffix(key, fileExt)
	if key == "" || len(key) > maxKeyLen || strings.Contains(key, "..") || !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}

// keyTime recovers the creation time encoded in corpus_<millis>_* and pdf_<millis> keys.
func keyTime(key string) (time.Time, bool) {
	var rest string
	switch {
	case strings.HasPrefix(key, keyPrefix):
		rest = strings.TrimPrefix(key, keyPrefix)
	case strings.HasPrefix(key, "pdf_"):
		rest = strings.TrimPrefix(key, "pdf_")
	default:
		return time.Time{}, false
	}
	if i := strings.IndexByte(rest, '_'); i >= 0 {
		rest = rest[:i]
	}
	ms, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
