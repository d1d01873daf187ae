package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hivdash/hivdash/internal/config"
	"github.com/hivdash/hivdash/internal/domain/dashboard"
	"github.com/hivdash/hivdash/internal/domain/facility"
	"github.com/hivdash/hivdash/internal/domain/snapshot"
	"github.com/hivdash/hivdash/internal/domain/summary"
	"github.com/hivdash/hivdash/internal/platform/auth"
	"github.com/hivdash/hivdash/internal/platform/db"
	"github.com/hivdash/hivdash/internal/platform/middleware"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "dashboard-server",
		Short:        "HIV program statistics dashboard API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(facilitiesCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig loads and validates configuration and builds the matching logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// app holds the wired services shared by the server and the CLI commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	stats      *statsapi.Client
	facilities *facility.Service
	summaries  *summary.Service
	dashboards *dashboard.Service
	snapshots  *snapshot.Service
	metrics    *telemetry.Metrics

	dbHealth echo.HandlerFunc
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: telemetry.NewMetrics("hivdash", version)}

	a.stats = statsapi.NewClient(cfg.StatsAPIBaseURL,
		statsapi.WithLogger(logger.With().Str("component", "statsapi").Logger()),
		statsapi.WithTimeout(cfg.StatsAPITimeout),
	)
	a.facilities = facility.NewService(a.stats, cfg.StatsAPIFacilitiesPath, logger)
	a.summaries = summary.NewService(a.stats, cfg.StatsAPISummaryPath, logger)
	a.dashboards = dashboard.NewService(a.summaries, logger)

	if err := a.openSnapshots(ctx); err != nil {
		a.Close()
		return nil, err
	}
	rec := recorders{a.metrics}
	if a.snapshots != nil {
		rec = append(rec, a.snapshots)
	}
	a.facilities.SetRecorder(rec)
	a.summaries.SetRecorder(rec)
	return a, nil
}

// recorders fans a fetch out to every attached recorder.
type recorders []facility.Recorder

func (rs recorders) Record(ctx context.Context, kind string, source statsapi.Source, query string, payload interface{}) {
	for _, r := range rs {
		r.Record(ctx, kind, source, query, payload)
	}
}

func (a *app) openSnapshots(ctx context.Context) error {
	switch a.cfg.SnapshotStore {
	case config.SnapshotStorePostgres:
		pool, err := db.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxConns, a.cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("connect snapshot database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.snapshots = snapshot.NewService(snapshot.NewRepoPG(pool), a.logger)
		a.dbHealth = db.HealthHandler(pool)
		a.logger.Info().Msg("recording fetch snapshots in postgres")
	case config.SnapshotStoreSQLite:
		conn, err := db.OpenSQLite(ctx, a.cfg.SQLitePath, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { conn.Close() })
		n, err := db.MigrateSQLite(ctx, conn, snapshot.SQLiteMigrations())
		if err != nil {
			return fmt.Errorf("migrate snapshot database: %w", err)
		}
		if n > 0 {
			a.logger.Info().Int("applied", n).Msg("applied sqlite migrations")
		}
		a.snapshots = snapshot.NewService(snapshot.NewRepoSQLite(conn), a.logger)
		a.dbHealth = db.SQLHealthHandler(conn)
		a.logger.Info().Str("path", a.cfg.SQLitePath).Msg("recording fetch snapshots in sqlite")
	}
	return nil
}

// Close releases the snapshot store, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg, logger)
		},
	}
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	e := newServer(a)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().
			Str("addr", addr).
			Str("auth_mode", cfg.ResolvedAuthMode()).
			Str("stats_api", a.stats.BaseURL()).
			Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(a *app) *echo.Echo {
	cfg := a.cfg
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(a.metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{statsapi.SourceHeader, middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders())

	switch cfg.ResolvedAuthMode() {
	case "jwt":
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	default:
		a.logger.Warn().Msg("authentication disabled, every request runs as admin")
		e.Use(auth.DevAuthMiddleware())
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if a.dbHealth != nil {
		e.GET("/health/db", a.dbHealth)
	}
	e.GET("/metrics", a.metrics.Handler(), auth.RequireRole(auth.RoleAdmin))

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg))
	if cfg.RequestTimeout > 0 {
		apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	facility.NewHandler(a.facilities).RegisterRoutes(apiV1)
	summary.NewHandler(a.summaries).RegisterRoutes(apiV1)
	dashboard.NewHandler(a.dashboards, a.facilities).RegisterRoutes(apiV1)
	if a.snapshots != nil {
		snapshot.NewHandler(a.snapshots).RegisterRoutes(apiV1)
	}

	return e
}

// openPool connects to DATABASE_URL for the migrate commands.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}
