package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultBase = "cdi_stats.db"

// ResolvePath returns the database file to use. The configured base name is
// used when that file already exists; otherwise a per-year name
// "<stem>-<year>.db" is derived from the clock, so a fresh install (or a new
// school year with no explicit base file) starts a new file.
func ResolvePath(dir, base string, now time.Time) (string, error) {
	if base == "" {
		base = DefaultBase
	}
	configured := base
	if !filepath.IsAbs(base) {
		configured = filepath.Join(dir, base)
	}

	_, err := os.Stat(configured)
	if err == nil {
		return configured, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", &StorageError{Op: "stat", Path: configured, Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(configured), filepath.Ext(configured))
	yearly := fmt.Sprintf("%s-%d.db", stem, now.Year())
	return filepath.Join(filepath.Dir(configured), yearly), nil
}

// ensureFile creates the parent directory and an empty file at path if they
// are missing. Existing files are left untouched.
func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &StorageError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return &StorageError{Op: "create", Path: path, Err: err}
	}
	return f.Close()
}
