package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/DoubanRecommend/internal/api"
	"github.com/Belphemur/DoubanRecommend/internal/cache"
	"github.com/Belphemur/DoubanRecommend/internal/client"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	grpcserver "github.com/Belphemur/DoubanRecommend/internal/grpc"
	"github.com/Belphemur/DoubanRecommend/internal/metrics"
	"github.com/Belphemur/DoubanRecommend/internal/storage"
	"github.com/Belphemur/DoubanRecommend/internal/supervisor"
	"github.com/Belphemur/DoubanRecommend/internal/tags"
	"github.com/Belphemur/DoubanRecommend/internal/widget"
)

const (
	healthInterval  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	maxCoverBytes   = 1 << 20
)

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Str("catalog_base_url", cfg.Catalog.BaseURL).
		Str("catalog_proxy_url", cfg.Catalog.ProxyURL).
		Str("catalog_mirror_url", cfg.Catalog.MirrorURL).
		Str("storage_provider", cfg.Storage.Provider).
		Str("cache_provider", cfg.Cache.Provider).
		Int("server_port", cfg.Server.Port).
		Str("server_address", cfg.Server.Address).
		Msg("Application started with configuration")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Error().Err(err).Msg("Failed to initialize Sentry, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(cfg.Storage.Provider, storage.ProviderConfig{
		Path:          cfg.Storage.Path,
		QuotaBytes:    cfg.Storage.QuotaBytes,
		KeyPrefix:     cfg.Storage.KeyPrefix,
		RedisAddress:  cfg.Storage.Redis.Address,
		RedisPassword: cfg.Storage.Redis.Password,
		RedisDB:       cfg.Storage.Redis.DB,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Storage.Provider).Msg("Failed to open storage")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	catalog := client.NewClient(cfg)
	defer func() { _ = catalog.Close() }()

	editor := tags.NewEditor(ctx, tags.NewStore(backend))
	w := widget.New(ctx, catalog, editor, backend, widget.Options{
		PageSize: cfg.Catalog.PageSize,
		MaxPages: cfg.Catalog.MaxPages,
	})
	unsubscribe := editor.Subscribe(w.HandleTagEvent)
	defer unsubscribe()
	w.Start()
	defer w.Close()

	covers, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           config.Duration("cache.ttl", cfg.Cache.TTL, time.Hour),
		MaxEntryBytes: maxCoverBytes,
		Logger:        logger,
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Group:         "proxy",
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Msg("Failed to create cover cache")
	}
	defer func() { _ = covers.Close() }()

	router := api.NewRouter(w, editor, catalog, covers, api.Options{AllowedHosts: cfg.Proxy.AllowedHosts})
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpcserver.NewGRPCServer(map[string]grpcserver.HealthCheck{
		"storage": func(ctx context.Context) error { return storage.Ping(ctx, backend) },
	})

	tree := supervisor.NewTree(logger, supervisor.TreeConfig{ShutdownTimeout: shutdownTimeout})
	tree.AddServer(supervisor.NewHTTPService("http-api", httpServer, shutdownTimeout))
	tree.AddServer(supervisor.NewGRPCService("grpc",
		net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.GRPC.Port)), grpcServer, shutdownTimeout))
	tree.AddWorker(supervisor.NewFuncService("health-watch", func(ctx context.Context) error {
		grpcServer.Watch(ctx, healthInterval)
		return ctx.Err()
	}))
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
		tree.AddServer(supervisor.NewHTTPService("metrics", metricsServer, shutdownTimeout))
	}

	logger.Info().Str("http", httpServer.Addr).Int("grpc_port", cfg.GRPC.Port).Msg("Starting servers")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Supervisor stopped with error")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logger.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}

	logger.Info().Msg("Server stopped gracefully")
}
