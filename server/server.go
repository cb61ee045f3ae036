// Package server exposes the HTTP surface: the status page, health and readiness
// probes, and Prometheus metrics. Every request gets a correlation id and a trace span.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/nodecheck/config"
	"github.com/onnwee/nodecheck/db"
	"github.com/onnwee/nodecheck/node"
	"github.com/onnwee/nodecheck/telemetry"
)

// NewMux returns the HTTP handler with all routes.
// The provided context bounds the rate limiter cleanup goroutine.
func NewMux(ctx context.Context, cfg *config.Config, src db.Source) http.Handler {
	return newMux(ctx, cfg, NewHandlers(cfg, src))
}

func newMux(ctx context.Context, cfg *config.Config, handlers *Handlers) http.Handler {
	limiter := newIPRateLimiter(ctx, cfg.RateLimit)
	if cfg.RateLimit.Enabled {
		slog.Info("status page rate limiter enabled",
			slog.Int("requests_per_ip", cfg.RateLimit.RequestsPerIP),
			slog.Duration("window", cfg.RateLimit.Window))
	}

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.Handle("/readyz", rateLimitMiddleware(http.HandlerFunc(handlers.HandleReadyz), limiter))

	// Status page; each hit opens a database connection
	mux.Handle("/", rateLimitMiddleware(http.HandlerFunc(handlers.HandleStatus), limiter))

	return withTelemetry(mux)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, cfg *config.Config, src db.Source) error {
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, cfg, src)
}

// Serve is Start on an existing listener.
func Serve(ctx context.Context, ln net.Listener, cfg *config.Config, src db.Source) error {
	// WriteTimeout must outlast a full probe.
	writeTimeout := 10 * time.Second
	if t := cfg.DB.Timeout + 5*time.Second; t > writeTimeout {
		writeTimeout = t
	}
	srv := &http.Server{
		Handler:           NewMux(ctx, cfg, src),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.NFSMountPath != "" {
		checker := node.MountChecker{Path: cfg.NFSMountPath}
		go checker.Watch(ctx, cfg.NFSCheckInterval, func(m node.Mount) {
			telemetry.RecordMount(m.Mounted, m.Write, m.Read)
		})
		slog.Info("nfs share check enabled", slog.String("path", cfg.NFSMountPath), slog.Duration("interval", cfg.NFSCheckInterval))
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
