package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped; other errors are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}

// StorePaths returns the on-disk locations a store occupies, for DiskUsageBytes.
func StorePaths(s Store) []string {
	switch st := s.(type) {
	case *FileStore:
		return []string{st.Dir()}
	case *SQLiteStore:
		return []string{st.Path(), st.Path() + "-wal", st.Path() + "-shm"}
	}
	return nil
}
