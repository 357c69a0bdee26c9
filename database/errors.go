package database

import (
	"errors"
	"fmt"
)

var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError reports a failure to create, open, read or write the backing
// file. It matches ErrStorageUnavailable with errors.Is.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: storage unavailable: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
