package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/undeadops/tersemap/internal/api"
	"github.com/undeadops/tersemap/internal/config"
	"github.com/undeadops/tersemap/internal/db"
	"github.com/undeadops/tersemap/internal/encoder"
	"github.com/undeadops/tersemap/internal/mapper"
	"github.com/undeadops/tersemap/internal/metrics"
)

const (
	appName = "tersemap"
)

var version string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	logLevel := "info"
	if err == nil && cfg.Debug {
		logLevel = "debug"
	}

	logger := httplog.NewLogger(appName, httplog.Options{
		JSON:     true,
		Concise:  true,
		LogLevel: logLevel,
		Tags: map[string]string{
			"version": version,
			"app":     appName,
		},
	})

	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Info().Str("version", version).Msgf("Starting %s version %s", appName, version)

	enc, err := encoder.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid encoder configuration")
	}

	logger.Info().Msg("Setting up database connection...")
	st, err := db.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to connect to storage")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := mapper.New(mapper.Options{
		Encoder:   enc,
		Store:     st,
		CacheSize: cfg.CacheSize,
		Logger:    &logger,
		Metrics:   metrics.New(reg),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to build mapping engine")
	}
	defer engine.Close()

	router := api.Router(engine, logger, cfg.RequestTimeout, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: 2 * cfg.RequestTimeout,
	}

	logger.Info().Str("encoder", cfg.Encoder).Int("cache_size", cfg.CacheSize).Msgf("Starting %s server on %s", appName, cfg.Addr)
	// Run server in the background
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Err(err).Msg("Server error")
			stop()
		}
	}()

	// Listen for the interrupt signal
	<-ctx.Done()

	// Create shutdown context with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Trigger graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Err(err).Msg("Shutdown error")
	}
	logger.Info().Msgf("Shutting down %s server", appName)
}
