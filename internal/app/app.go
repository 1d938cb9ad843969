// Package app wires RelayKey's dependencies together and runs the HTTP
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wisbric/relaykey/internal/admin"
	"github.com/wisbric/relaykey/internal/allowlist"
	"github.com/wisbric/relaykey/internal/config"
	"github.com/wisbric/relaykey/internal/gatewayauth"
	"github.com/wisbric/relaykey/internal/httpserver"
	"github.com/wisbric/relaykey/internal/keyhash"
	"github.com/wisbric/relaykey/internal/limits"
	"github.com/wisbric/relaykey/internal/platform"
	"github.com/wisbric/relaykey/internal/policycache"
	"github.com/wisbric/relaykey/internal/proxy"
	"github.com/wisbric/relaykey/internal/ratelimit"
	"github.com/wisbric/relaykey/internal/retry"
	"github.com/wisbric/relaykey/internal/store"
	"github.com/wisbric/relaykey/internal/telemetry"
	"github.com/wisbric/relaykey/internal/usage"
)

// Run is the main application entry point: given the loaded config, it
// connects to infrastructure and serves the gateway until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting relaykey", "mode", cfg.Mode, "bind_addr", cfg.BindAddr)

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	hasher, err := keyhash.New(cfg.KeySalt)
	if err != nil {
		return fmt.Errorf("initializing key hasher: %w", err)
	}

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, hasher, metricsReg)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	rdb *redis.Client,
	hasher *keyhash.Hasher,
	metricsReg *prometheus.Registry,
) error {
	virtualKeys := store.NewVirtualKeyStore(db)
	policies := store.NewPolicyStore(db)
	partners := store.NewPartnerStore(db)
	credentials := store.NewCredentialStore(db)
	usageStore := store.NewUsageStore(db)

	recorder := usage.NewRecorder(usageStore, logger)
	recorder.Start(ctx)
	defer recorder.Close()

	scriptEvaler := platform.ScriptEvaler{Client: rdb}
	tokenBucket := ratelimit.NewTokenBucket(scriptEvaler, logger)
	quota := ratelimit.NewQuota(scriptEvaler, logger)
	retryBudget := retry.NewBudget(scriptEvaler, logger, cfg.PartnerRetriesPerMin, cfg.VKRetriesPerMin)

	policyCacheClient := platform.PolicyCacheClient{Client: rdb}
	policyCache := policycache.New(policyCacheClient, policies, cfg.PolicyCacheTTL, logger)

	srv := httpserver.NewServer(httpserver.Config{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		CORSOrigins:    cfg.CORSAllowedOrigins,
	}, logger, platform.PoolPinger{Pool: db}, platform.RedisPinger{Client: rdb}, metricsReg)

	authMW := gatewayauth.Middleware(virtualKeys, policyCache, hasher, logger)
	limitsMW := limits.Middleware(tokenBucket, quota, recorder)
	allowlistMW := allowlist.Middleware(recorder)

	proxyHandler := &proxy.Handler{
		Partners:    partners,
		Credentials: credentials,
		Recorder:    recorder,
		Budget:      retryBudget,
		HTTPClient:  &http.Client{},
		Log:         logger,
	}

	srv.Router.Route("/proxy", func(r chi.Router) {
		r.Use(authMW)
		r.Use(limitsMW)
		r.Use(allowlistMW)
		r.Handle("/{partner}/*", proxyHandler)
	})

	adminService := admin.NewService(virtualKeys, hasher, logger)
	adminHandler := admin.NewHandler(adminService, logger)
	srv.Router.Route("/admin", func(r chi.Router) {
		r.Use(admin.Gate(cfg.AdminToken))
		r.Mount("/", adminHandler.Routes())
	})

	httpSrv := &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relaykey listening", "addr", cfg.BindAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down relaykey")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
