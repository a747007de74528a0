package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/onerouter/gateway/internal/adapters/cache"
	"github.com/onerouter/gateway/internal/adapters/forward"
	httpadapter "github.com/onerouter/gateway/internal/adapters/http"
	"github.com/onerouter/gateway/internal/adapters/postgres"
	"github.com/onerouter/gateway/internal/adapters/providers"
	"github.com/onerouter/gateway/internal/application"
	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/idempotency"
	"github.com/onerouter/gateway/internal/router"
	"github.com/onerouter/gateway/internal/vault"
	"github.com/onerouter/gateway/internal/webhook"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	forwarder  *forward.Forwarder
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping gateway", "http_port", cfg.HTTPPort)

	defaultProvider, err := domain.ParseProvider(cfg.DefaultProvider)
	if err != nil {
		return nil, fmt.Errorf("default provider: %w", err)
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(db)

	vlt, err := vault.New(cfg.VaultPassphrase, logger)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init vault: %w", err)
	}

	factory := providers.NewFactory(providers.Config{
		RazorpayBaseURL:  cfg.RazorpayBaseURL,
		PayPalSandboxURL: cfg.PayPalSandboxURL,
		PayPalLiveURL:    cfg.PayPalLiveURL,
		WriteTimeout:     cfg.ProviderTimeout,
	})

	rtr := router.New(router.Dependencies{
		Credentials: repos.Credentials,
		Preferences: repos.Preferences,
		Cache:       cacheadapter.NewRedisCredentialCache(redisClient),
		Vault:       vlt,
		Factory:     factory,
		EnvLookup:   os.LookupEnv,
		CacheTTL:    cfg.CredentialCacheTTL,
		Logger:      logger,
	})

	controller := idempotency.NewController(
		idempotency.Config{LockTTL: cfg.IdempotencyLockTTL},
		cacheadapter.NewRedisIdempotencyLockStore(redisClient),
		repos.Idempotency,
		logger,
	)

	forwarder := forward.New(forward.Config{
		QueueSize:   cfg.ForwardQueueSize,
		WorkerCount: cfg.ForwardWorkers,
		ServiceName: cfg.ServiceID,
	}, repos.WebhookEvents, logger)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultProvider: defaultProvider,
			APIKeyCacheTTL:  cfg.APIKeyCacheTTL,
		},
		Vault:           vlt,
		Router:          rtr,
		Idempotency:     controller,
		Verifier:        webhook.NewVerifier(repos.WebhookReceipts, logger),
		Factory:         factory,
		Credentials:     repos.Credentials,
		APIKeys:         repos.APIKeys,
		APIKeyCache:     cacheadapter.NewRedisAPIKeyCache(redisClient),
		WebhookEvents:   repos.WebhookEvents,
		TransactionLogs: repos.TransactionLogs,
		Forwarder:       forwarder,
		Logger:          logger,
	})

	handler := httpadapter.NewHandler(svc, cfg.OperatorJWTSecret)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		forwarder:  forwarder,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.forwarder.Shutdown()
	r.cleanupFn(shutdownCtx)
	return nil
}
