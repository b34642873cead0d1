package http

import (
	"net/http"

	"go.uber.org/zap"
)

type RouterConfig struct {
	Stress        *StressHandler
	Unemployment  *UnemploymentHandler
	Health        *HealthHandler
	RateLimiter   *RateLimiter
	Metrics       http.Handler
	AllowedOrigin string
	Logger        *zap.Logger
}

// NewRouter mounts the API routes behind the shared middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(cfg.RateLimiter, cfg.Logger, h)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/stress-test", limited(cfg.Stress.RunStressTest))
	mux.Handle("/api/stress-test/runs", limited(cfg.Stress.ListRuns))
	mux.Handle("/api/unemployment", limited(cfg.Unemployment.LatestRate))
	mux.HandleFunc("/api/health", cfg.Health.Health)
	mux.HandleFunc("/api/profile", cfg.Health.Profile)
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	handler = CORSMiddleware(cfg.AllowedOrigin, handler)
	handler = AccessLogMiddleware(cfg.Logger, handler)
	handler = RequestIDMiddleware(handler)
	return handler
}
