package main

import (
	"context"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/config"
	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
	"github.com/vaxtrack/vaxtrack/internal/domain/verification"
	"github.com/vaxtrack/vaxtrack/internal/platform/db"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

func loadCatalog(cfg *config.Config) (*vaccine.Catalog, error) {
	if cfg.CatalogFile != "" {
		return vaccine.LoadFile(cfg.CatalogFile)
	}
	return vaccine.LoadDefault()
}

func newEngine(cfg *config.Config, catalog *vaccine.Catalog) *schedule.Engine {
	var opts []schedule.Option
	if cfg.SeriesTracking {
		opts = append(opts, schedule.WithSeriesTracking())
	}
	return schedule.NewEngine(catalog, opts...)
}

func trustedDomains(cfg *config.Config) []string {
	if len(cfg.TrustedDomains) > 0 {
		return cfg.TrustedDomains
	}
	return verification.DefaultTrustedDomains
}

// verificationDeps is the verification cache plus whatever it holds open.
type verificationDeps struct {
	cache *verification.Cache
	redis *goredis.Client
}

func (d *verificationDeps) Close() {
	if d.redis != nil {
		d.redis.Close()
	}
}

func newVerification(ctx context.Context, cfg *config.Config, catalog *vaccine.Catalog, logger zerolog.Logger) (*verificationDeps, error) {
	deps := &verificationDeps{}
	trusted := trustedDomains(cfg)

	var store verification.Store
	switch cfg.VerifyCache {
	case config.StoreRedis:
		rdb, err := db.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("verification cache: %w", err)
		}
		deps.redis = rdb
		store = verification.NewRedisStore(rdb, cfg.VerifyTTL)
	default:
		store = verification.NewMemoryStore()
	}

	var verifier verification.Verifier
	switch cfg.VerifyMode {
	case config.VerifyHTTP:
		verifier = verification.NewHTTPVerifier(trusted, cfg.VerifyRPS, cfg.VerifyTimeout)
	default:
		verifier = verification.AllowlistVerifier{Trusted: trusted}
	}

	deps.cache = verification.NewCache(catalog, store, verifier,
		verification.WithTTL(cfg.VerifyTTL),
		verification.WithTimeout(cfg.VerifyTimeout),
		verification.WithConcurrency(cfg.VerifyConcurrency),
		verification.WithTrustedDomains(trusted),
		verification.WithLogger(logger.With().Str("component", "verification").Logger()),
	)
	return deps, nil
}
