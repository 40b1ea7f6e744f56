// Package db holds the durable Store backends and picks one from the
// configured storage URL.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/undeadops/tersemap/internal/config"
	"github.com/undeadops/tersemap/internal/store"
)

// Open connects the backend named by cfg.DatabaseURL:
//
//	sqlite://path or a bare path   SQLite file, single connection
//	postgres://... postgresql://   PostgreSQL pool
//	redis://... rediss://...       Redis
//	dynamodb://table               DynamoDB table in cfg.Region
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	raw := cfg.DatabaseURL
	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		scheme, rest = "sqlite", raw
	}

	switch scheme {
	case "sqlite", "sqlite3":
		logger.Info().Str("path", rest).Msg("Using SQLite storage")
		s, err := OpenSQLite(rest)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		logger.Info().Msg("Using PostgreSQL storage")
		s, err := OpenPostgres(raw)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis", "rediss":
		logger.Info().Msg("Using Redis storage")
		r, err := OpenRedis(ctx, raw)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "dynamodb":
		logger.Info().Str("table", rest).Msg("Using DynamoDB storage")
		client := &Client{
			Region:      cfg.Region,
			Table:       rest,
			DDBEndpoint: cfg.DDBEndpoint,
			DebugMode:   cfg.Debug,
			Logger:      logger,
		}
		if err := SetupDB(ctx, client); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, &config.Error{Field: "DATABASE_URL", Reason: fmt.Sprintf("unsupported storage scheme %q", scheme)}
	}
}
