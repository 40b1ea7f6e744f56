package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no record holds the token.
var ErrNotFound = errors.New("record not found")

// Store - durable token to original URI mapping, unique on token
type Store interface {
	Get(ctx context.Context, token string) (Record, error)
	// Insert is insert-or-ignore: an existing token is left untouched and
	// no error is reported.
	Insert(ctx context.Context, token string, originalURI string) error
	// Delete reports whether a record was removed. Absence is not an error.
	Delete(ctx context.Context, token string) (bool, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

type Record struct {
	Token       string `json:"token"`
	OriginalURI string `json:"original_uri"`
}
