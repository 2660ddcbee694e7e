package jsonserver

import (
	"context"
	"net/http"
	"time"

	"booklib/internal/config"
	"booklib/internal/httpx"
	"booklib/internal/jsonstore"

	"go.uber.org/zap"
)

// Handler builds the routed API wrapped in the middleware stack. The rate
// limiter's housekeeping stops when ctx is done.
func Handler(ctx context.Context, cfg config.Server, store *jsonstore.Store, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	NewHTTPHandler(store, logger).Routes(mux)

	limiter := httpx.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
		httpx.CORSMiddleware(cfg.AllowedOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
		httpx.DelayMiddleware(cfg.ResponseDelay),
	)
}

// NewServer returns an http.Server for the mock API.
func NewServer(ctx context.Context, cfg config.Server, store *jsonstore.Store, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           Handler(ctx, cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
