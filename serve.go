package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/config"
	httpLayer "github.com/AMeenalosini/StressTesting/http"
	"github.com/AMeenalosini/StressTesting/metrics"
	"github.com/AMeenalosini/StressTesting/repository"
	"github.com/AMeenalosini/StressTesting/scheduler"
	"github.com/AMeenalosini/StressTesting/service"
)

const memoryRunHistory = 1000

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the stress testing HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.CacheRepository, func()) {
	if cfg.RedisAddr == "" {
		return repository.NewMockCache(), func() {}
	}

	cache := repository.NewRedisCache(cfg.RedisAddr, "stresstest:")
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, using in-process cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		cache.Close()
		return repository.NewMockCache(), func() {}
	}
	logger.Info("redis cache connected", zap.String("addr", cfg.RedisAddr))
	return cache, func() { cache.Close() }
}

func newRunRepository(cfg *config.Config, logger *zap.Logger) (repository.StressRunRepository, error) {
	if cfg.SQLitePath == "" {
		return repository.NewStressRunRepositoryMemory(memoryRunHistory), nil
	}
	repo, err := repository.NewStressRunRepositorySQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("sqlite run history opened", zap.String("path", cfg.SQLitePath))
	return repo, nil
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return codeError(exitConfig, "load configuration: %s", err)
	}
	// A bad bank profile is a deployment defect; refuse to start.
	if err := cfg.Validate(); err != nil {
		return codeError(exitConfig, "invalid configuration: %s", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return codeError(exitConfig, "%s", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()

	runRepo, err := newRunRepository(cfg, logger)
	if err != nil {
		return codeError(exitRuntime, "open run history: %s", err)
	}
	defer runRepo.Close()

	stressService, err := service.NewStressService(cfg.Profile, runRepo, logger)
	if err != nil {
		return codeError(exitConfig, "%s", err)
	}

	unemploymentService := service.NewUnemploymentService(service.UnemploymentConfig{
		APIKey:   cfg.FREDAPIKey,
		BaseURL:  cfg.FREDBaseURL,
		SeriesID: cfg.FREDSeriesID,
		Timeout:  cfg.FREDTimeout,
		CacheTTL: cfg.UnemploymentCacheTTL,
	}, cache, logger)
	if !unemploymentService.Enabled() {
		logger.Warn("FRED_API_KEY not set, unemployment endpoint disabled")
	}

	if cfg.UnemploymentRefreshCron != "" && unemploymentService.Enabled() {
		refresher, err := scheduler.NewRefresher(ctx, cfg.UnemploymentRefreshCron, unemploymentService, cfg.FREDTimeout, logger)
		if err != nil {
			return codeError(exitConfig, "%s", err)
		}
		refresher.Start()
		defer refresher.Stop()
		go refresher.RunNow()
	}

	explanationService := service.NewExplanationService(service.ExplanationConfig{
		APIKey: cfg.OpenAIAPIKey,
		APIURL: cfg.OpenAIAPIURL,
		Model:  cfg.OpenAIModel,
	}, logger)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer rateLimiter.Stop()

	handler := httpLayer.NewRouter(httpLayer.RouterConfig{
		Stress:        httpLayer.NewStressHandler(stressService, unemploymentService, explanationService, logger),
		Unemployment:  httpLayer.NewUnemploymentHandler(unemploymentService, logger),
		Health:        httpLayer.NewHealthHandler(stressService.Profile(), logger),
		RateLimiter:   rateLimiter,
		Metrics:       metrics.Handler(),
		AllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("stress testing API listening",
			zap.String("addr", server.Addr),
			zap.String("bank", cfg.Profile.Name),
			zap.String("version", version),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return codeError(exitRuntime, "starting server: %s", err)
	case <-quit:
		logger.Info("shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
