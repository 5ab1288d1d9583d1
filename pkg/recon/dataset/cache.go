package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// Binary dataset caches let a resumed run reload converted data without
// re-exporting. Files are written through a temp file plus rename so a crash
// mid-write never leaves a truncated cache behind.

// WriteCache stores rows in binary form at path.
func WriteCache[T any](path string, rows []T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create cache file %s: %w", path, err)
	}

	if err := gob.NewEncoder(f).Encode(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode cache %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close cache file %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cache file %s: %w", path, err)
	}
	return nil
}

// ReadCache loads rows previously stored with WriteCache.
func ReadCache[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache file %s: %w", path, err)
	}
	defer f.Close()

	var rows []T
	if err := gob.NewDecoder(f).Decode(&rows); err != nil {
		// A corrupt cache spoils one country's data, not the run
		return nil, reconerr.Integrity(err, fmt.Sprintf("decoding cache %s", path))
	}
	return rows, nil
}

// CachePath builds the conventional cache file location for a country's
// dataset, optionally scoped to one GL account.
func CachePath(dir, country string, kind Kind, account string) string {
	name := country + "_" + string(kind)
	if account != "" {
		name += "_" + account
	}
	return filepath.Join(dir, name+".gob")
}
