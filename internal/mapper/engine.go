// Package mapper is the mapping engine: it turns original URIs into tokens
// and resolves them back, keeping a bounded FIFO cache in front of the
// durable store.
//
// The cache only ever holds tokens that are also in the store. Cache hits
// are served without any lock beyond the cache's own. Misses, inserts and
// deletes of one token are serialised through a striped lock so a delete
// cannot race a read that is about to repopulate the cache.
package mapper

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/undeadops/tersemap/internal/cache"
	"github.com/undeadops/tersemap/internal/config"
	"github.com/undeadops/tersemap/internal/encoder"
	"github.com/undeadops/tersemap/internal/metrics"
	"github.com/undeadops/tersemap/internal/store"
)

const stripes = 64

// Operation names used in logs, errors and metrics.
const (
	OpInsert = "insert"
	OpRead   = "read"
	OpDelete = "delete"
	OpList   = "list"
)

type Options struct {
	Encoder   encoder.Encoder
	Store     store.Store
	CacheSize int
	Logger    *zerolog.Logger
	Metrics   *metrics.Metrics
}

// Engine is shared by all requests and holds no per-request state.
type Engine struct {
	encoder encoder.Encoder
	store   store.Store
	cache   *cache.FIFO
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	locks [stripes]sync.Mutex
}

// New fails with a *config.Error when the encoder or store is missing.
func New(opts Options) (*Engine, error) {
	if opts.Encoder == nil {
		return nil, &config.Error{Field: "encoder", Reason: "is not set"}
	}
	if opts.Store == nil {
		return nil, &config.Error{Field: "store", Reason: "is not set"}
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = cache.DefaultCapacity
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	e := &Engine{
		encoder: opts.Encoder,
		store:   opts.Store,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	e.cache = cache.New(opts.CacheSize, cache.WithEvictHook(e.evicted))
	return e, nil
}

func (e *Engine) lock(token string) *sync.Mutex {
	return &e.locks[xxhash.Sum64String(token)%stripes]
}

func (e *Engine) evicted(token string) {
	e.metrics.Cache(metrics.CacheEviction)
	e.logger.Debug().Str("token", token).Msg("evicted from cache")
}

func (e *Engine) cached(token string) (string, bool) {
	uri, ok := e.cache.Get(token)
	if ok {
		e.metrics.Cache(metrics.CacheHit)
	} else {
		e.metrics.Cache(metrics.CacheMiss)
	}
	return uri, ok
}

func (e *Engine) populate(token, originalURI string) {
	e.cache.Put(token, originalURI)
	e.metrics.CacheEntries.Set(float64(e.cache.Len()))
	e.logger.Debug().Str("token", token).Str("uri", originalURI).Msg("cached")
}

func (e *Engine) fail(op, token string, err error) error {
	e.metrics.Op(op, "error")
	e.logger.Error().Err(err).Str("op", op).Str("token", token).Msg("storage failure")
	return &StorageError{Op: op, Token: token, Err: err}
}

// Insert returns the token for originalURI, storing the mapping unless the
// token is already cached. A token that already exists in the store is not
// an error.
func (e *Engine) Insert(ctx context.Context, originalURI string) (string, error) {
	if originalURI == "" {
		e.metrics.Op(OpInsert, "malformed")
		return "", malformed("uri is empty")
	}

	token, err := e.encoder.Encode(originalURI)
	if err != nil {
		e.metrics.Op(OpInsert, "error")
		return "", err
	}

	if _, ok := e.cached(token); ok {
		e.metrics.Op(OpInsert, "ok")
		e.logger.Debug().Str("token", token).Msg("load from cache")
		return token, nil
	}

	mu := e.lock(token)
	mu.Lock()
	defer mu.Unlock()

	// A concurrent insert of the same token may have finished while we waited.
	if _, ok := e.cache.Get(token); ok {
		e.metrics.Op(OpInsert, "ok")
		return token, nil
	}

	if err := e.store.Insert(ctx, token, originalURI); err != nil {
		return "", e.fail(OpInsert, token, err)
	}
	e.populate(token, originalURI)

	e.metrics.Op(OpInsert, "ok")
	return token, nil
}

// Read resolves token to its original URI, falling back to the store on a
// cache miss. Tokens containing a path separator are rejected up front.
func (e *Engine) Read(ctx context.Context, token string) (string, error) {
	if token == "" {
		e.metrics.Op(OpRead, "malformed")
		return "", malformed("token is empty")
	}
	if strings.Contains(token, "/") {
		e.metrics.Op(OpRead, "malformed")
		return "", malformed("token contains a path separator")
	}

	if uri, ok := e.cached(token); ok {
		e.metrics.Op(OpRead, "ok")
		e.logger.Debug().Str("token", token).Msg("load from cache")
		return uri, nil
	}

	mu := e.lock(token)
	mu.Lock()
	defer mu.Unlock()

	if uri, ok := e.cache.Get(token); ok {
		e.metrics.Op(OpRead, "ok")
		return uri, nil
	}

	rec, err := e.store.Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		e.metrics.Op(OpRead, "not_found")
		return "", ErrNotFound
	}
	if err != nil {
		return "", e.fail(OpRead, token, err)
	}
	e.populate(token, rec.OriginalURI)

	e.metrics.Op(OpRead, "ok")
	return rec.OriginalURI, nil
}

// Delete removes token from the store and the cache. Deleting an unknown
// token succeeds, so the result is true whenever err is nil.
func (e *Engine) Delete(ctx context.Context, token string) (bool, error) {
	if token == "" {
		e.metrics.Op(OpDelete, "malformed")
		return false, malformed("token is empty")
	}

	mu := e.lock(token)
	mu.Lock()
	defer mu.Unlock()

	existed, err := e.store.Delete(ctx, token)
	if err != nil {
		return false, e.fail(OpDelete, token, err)
	}
	e.cache.Remove(token)
	e.metrics.CacheEntries.Set(float64(e.cache.Len()))

	e.metrics.Op(OpDelete, "ok")
	e.logger.Debug().Str("token", token).Bool("existed", existed).Msg("deleted")
	return true, nil
}

// List returns every stored record straight from the store.
func (e *Engine) List(ctx context.Context) ([]store.Record, error) {
	records, err := e.store.List(ctx)
	if err != nil {
		return nil, e.fail(OpList, "", err)
	}
	e.metrics.Op(OpList, "ok")
	return records, nil
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}
