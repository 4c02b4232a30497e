package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable wraps every failure to reach or query the
	// backing database. Callers must treat it as "cannot verify", never as
	// "not found".
	ErrStorageUnavailable = errors.New("credential store unavailable")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
