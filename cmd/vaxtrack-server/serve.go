package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaxtrack/vaxtrack/internal/config"
	"github.com/vaxtrack/vaxtrack/internal/domain/reminder"
	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
	"github.com/vaxtrack/vaxtrack/internal/domain/verification"
	"github.com/vaxtrack/vaxtrack/internal/platform/auth"
	"github.com/vaxtrack/vaxtrack/internal/platform/db"
	"github.com/vaxtrack/vaxtrack/internal/platform/middleware"
	"github.com/vaxtrack/vaxtrack/migrations"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			autoMigrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(autoMigrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving (postgres only)")
	return cmd
}

// server holds everything the HTTP layer is built from.
type server struct {
	cfg       *config.Config
	logger    zerolog.Logger
	catalog   *vaccine.Catalog
	engine    *schedule.Engine
	verify    *verification.Cache
	reminders *reminder.Service
	checks    map[string]db.Check
}

func runServer(autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		logger.Warn().Msg("development auth is active: every request is accepted; do not use this in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info().Int("vaccines", catalog.Len()).Str("file", cfg.CatalogFile).Msg("catalog loaded")

	engine := newEngine(cfg, catalog)

	vdeps, err := newVerification(ctx, cfg, catalog, logger)
	if err != nil {
		return err
	}
	defer vdeps.Close()

	checks := map[string]db.Check{}
	if vdeps.redis != nil {
		rdb := vdeps.redis
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var repo reminder.Repository
	switch cfg.RecordStore {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		if autoMigrate {
			if err := migrateUp(ctx, pool, logger); err != nil {
				return err
			}
		}
		checks["database"] = pool.Ping
		repo = reminder.NewRepoPG(pool)
	default:
		logger.Warn().Msg("saved reminders are kept in memory and lost on restart")
		repo = reminder.NewMemoryRepo()
	}

	s := &server{
		cfg:       cfg,
		logger:    logger,
		catalog:   catalog,
		engine:    engine,
		verify:    vdeps.cache,
		reminders: reminder.NewService(repo, catalog, engine, logger.With().Str("component", "reminder").Logger()),
		checks:    checks,
	}
	e := s.echo()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	n, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Int("applied", n).Msg("migrations up to date")
	return nil
}

// echo builds the HTTP router. Kept separate from runServer so the wiring
// can be exercised with httptest.
func (s *server) echo() *echo.Echo {
	cfg := s.cfg
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(s.logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.Recovery(s.logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(s.checks))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1 := e.Group("/api/v1")
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
		rl.BurstSize = cfg.RateLimitBurst
		if rl.BurstSize < 1 {
			rl.BurstSize = int(cfg.RateLimitRPS) + 1
		}
	}
	apiV1.Use(middleware.RateLimit(rl))

	vaccine.NewHandler(s.catalog, s.verify).RegisterRoutes(apiV1)
	schedule.NewHandler(s.engine).RegisterRoutes(apiV1)
	verification.NewHandler(s.verify, s.catalog).RegisterRoutes(apiV1)
	reminder.NewHandler(s.reminders).RegisterRoutes(apiV1)

	return e
}
