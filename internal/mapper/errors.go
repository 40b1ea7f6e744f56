package mapper

import (
	"errors"
	"fmt"

	"github.com/undeadops/tersemap/internal/store"
)

var (
	// ErrNotFound is the expected outcome of reading an unknown token.
	ErrNotFound = store.ErrNotFound
	// ErrMalformedInput rejects requests before the cache or store is touched.
	ErrMalformedInput = errors.New("malformed input")
)

// StorageError is a store failure surfaced to the caller. It is worth
// retrying; the engine itself never retries.
type StorageError struct {
	Op    string
	Token string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Token, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, reason)
}
