package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-analyzer/internal/analysis"
	"github.com/jonathan/resume-analyzer/internal/cache"
	"github.com/jonathan/resume-analyzer/internal/catalog"
	"github.com/jonathan/resume-analyzer/internal/config"
	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/logger"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
)

// loadConfig resolves the config file and environment, applies the global
// flags and initializes the process logger.
func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, log, nil
}

// services holds the runner and whichever optional backends were opened.
type services struct {
	runner *pipeline.Runner
	store  db.Store
	cache  *cache.RedisCache
}

type backends struct {
	store bool
	cache bool
}

// openServices builds the analyzer from cfg and connects the requested
// backends that are configured. An unreachable cache is logged and skipped;
// an unreachable database is an error.
func openServices(ctx context.Context, cfg config.Config, log zerolog.Logger, want backends) (*services, error) {
	opts, err := cfg.AnalyzerOptions(log)
	if err != nil {
		return nil, fmt.Errorf("invalid analyzer settings: %w", err)
	}
	cat := catalog.Load(cfg.CatalogPath, log)
	analyzer := analysis.New(cat, opts...)

	svc := &services{}
	runnerOpts := []pipeline.Option{pipeline.WithLogger(log)}

	if want.store && cfg.DatabaseURL != "" {
		store, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		svc.store = store
		runnerOpts = append(runnerOpts, pipeline.WithStore(store))
	}

	if want.cache && cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL, cache.DefaultTTL)
		if err != nil {
			log.Warn().Err(err).Msg("profile cache unavailable, continuing without it")
		} else {
			svc.cache = c
			runnerOpts = append(runnerOpts, pipeline.WithCache(c, cfg.CacheVariant(cat)))
		}
	}

	svc.runner = pipeline.NewRunner(analyzer, runnerOpts...)
	return svc, nil
}

// Close releases the backends.
func (s *services) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

// openStore connects to the configured database or fails when none is set.
func openStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required (set it in the environment or config file)")
	}
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
