package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sitekit/internal/config"
	"github.com/kailas-cloud/sitekit/internal/dataset"
	"github.com/kailas-cloud/sitekit/internal/db"
	dbRedis "github.com/kailas-cloud/sitekit/internal/db/redis"
	"github.com/kailas-cloud/sitekit/internal/metrics"
	"github.com/kailas-cloud/sitekit/internal/repository/item"
	"github.com/kailas-cloud/sitekit/internal/secret"
	"github.com/kailas-cloud/sitekit/internal/session"
	chiTransport "github.com/kailas-cloud/sitekit/internal/transport/chi"
	"github.com/kailas-cloud/sitekit/internal/transport/openai"
	catalogsvc "github.com/kailas-cloud/sitekit/internal/usecase/catalog"
	completionuc "github.com/kailas-cloud/sitekit/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/sitekit/internal/usecase/health"
	"github.com/kailas-cloud/sitekit/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, env, cfg, logger)
	},
}

// catalogRepo is implemented by both the Redis-backed and the in-memory item repositories.
type catalogRepo interface {
	catalogsvc.Repository
	dataset.Querier
	EnsureIndex(ctx context.Context) error
}

func serve(ctx context.Context, env string, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting sitekit API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("model", cfg.Completion.Model),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterDomainMetrics()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// Pass nil interfaces (not typed nil pointers) when there is no database.
	// Go gotcha: (*dbRedis.Store)(nil) wrapped in DBPinger != nil.
	var (
		repo   catalogRepo
		pinger healthuc.DBPinger
	)
	secrets := secret.Chain{secret.Static(cfg.Secrets.Values)}
	if store != nil {
		repo = item.New(store, cfg.Storage.KeyPrefix)
		secrets = append(secrets, secret.NewKV(store, cfg.Storage.KeyPrefix))
		pinger = store
	} else {
		repo = item.NewMemory()
	}

	if err := repo.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure catalog index: %w", err)
	}

	var secretStore secret.Store = secrets
	if cfg.Secrets.CacheTTLSec > 0 {
		cached := secret.NewCached(secrets, time.Duration(cfg.Secrets.CacheTTLSec)*time.Second)
		defer cached.Close()
		secretStore = cached
	}

	chat := openai.NewChat(&openai.Config{
		BaseURL:    cfg.Completion.BaseURL,
		Model:      cfg.Completion.Model,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.Completion.TimeoutSec) * time.Second},
		Logger:     logger,
	})
	completionSvc := completionuc.New(secretStore, chat, cfg.Completion.SecretName, logger)
	catalogSvc := catalogsvc.New(repo, logger).WithMaxBatchSize(cfg.Catalog.MaxBatchSize)

	pages := session.NewManager(repo, session.Config{
		TTL:         time.Duration(cfg.Sessions.TTLSec) * time.Second,
		MaxSessions: cfg.Sessions.MaxSessions,
		PageSize:    cfg.Catalog.PageSize,
	}, logger)
	defer pages.Close()

	healthSvc := healthuc.New(pinger, completionSvc)

	server := chiTransport.NewServer(completionSvc, catalogSvc, pages, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		// ctx is already done here; the shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
			time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// openStore connects to Redis or Valkey and waits for it. The memory driver returns a nil store.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory catalog; items are lost on restart")
		return nil, nil
	case config.DriverRedis, config.DriverValkey:
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		DB:         cfg.Database.DB,
		Standalone: cfg.Database.Standalone,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")
	return store, nil
}
