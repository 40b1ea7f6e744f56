package db

import (
	"context"

	"github.com/pkg/errors"
	goRedis "github.com/redis/go-redis/v9"

	"github.com/undeadops/tersemap/internal/store"
)

const redisKeyPrefix = "uri:"

// Redis keeps one string key per token. SETNX gives insert-or-ignore.
type Redis struct {
	redisClient *goRedis.Client
	prefix      string
}

func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := goRedis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url failed")
	}
	client := goRedis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis failed")
	}
	return NewRedis(client), nil
}

// NewRedis wraps an existing client. The caller hands over ownership.
func NewRedis(client *goRedis.Client) *Redis {
	return &Redis{redisClient: client, prefix: redisKeyPrefix}
}

func (r *Redis) Get(ctx context.Context, token string) (store.Record, error) {
	val, err := r.redisClient.Get(ctx, r.prefix+token).Result()
	if err == goRedis.Nil {
		return store.Record{}, store.ErrNotFound
	} else if err != nil {
		return store.Record{}, errors.Wrap(err, "get uri failed")
	}
	return store.Record{Token: token, OriginalURI: val}, nil
}

func (r *Redis) Insert(ctx context.Context, token string, originalURI string) error {
	if err := r.redisClient.SetNX(ctx, r.prefix+token, originalURI, 0).Err(); err != nil {
		return errors.Wrap(err, "insert uri failed")
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, token string) (bool, error) {
	n, err := r.redisClient.Del(ctx, r.prefix+token).Result()
	if err != nil {
		return false, errors.Wrap(err, "delete uri failed")
	}
	return n > 0, nil
}

// List walks the keyspace with SCAN, so it does not block the server.
// Keys deleted between SCAN and GET are skipped.
func (r *Redis) List(ctx context.Context) ([]store.Record, error) {
	records := make([]store.Record, 0)
	iter := r.redisClient.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := r.redisClient.Get(ctx, key).Result()
		if err == goRedis.Nil {
			continue
		} else if err != nil {
			return nil, errors.Wrap(err, "get uri failed")
		}
		records = append(records, store.Record{Token: key[len(r.prefix):], OriginalURI: val})
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scan uris failed")
	}
	return records, nil
}

func (r *Redis) Close() error {
	return r.redisClient.Close()
}
