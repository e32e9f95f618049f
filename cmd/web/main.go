package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"order-analytics/internal/config"
	"order-analytics/internal/metrics"
	"order-analytics/internal/middleware"
	"order-analytics/internal/observability"
	"order-analytics/internal/server"
	"order-analytics/internal/services"
	"order-analytics/internal/testrunner"
	"order-analytics/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"csv_file", cfg.Dataset.CSVFile,
	)

	m := metrics.New()

	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithMetrics(m),
		services.WithTopCustomers(cfg.Analytics.TopCustomersLimit),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromCSV(ctx, cfg.Dataset.CSVFile); err != nil {
		logger.Error("failed to load CSV data", "error", err)
		os.Exit(1)
	}
	logger.Info("CSV data loaded successfully", "duration", time.Since(start))

	tests := testrunner.New(cfg.Tests, logger, m)

	srv := server.NewServer(analytics, tests, logger, &server.Handlers{
		Dashboard: handleDashboard,
		Metrics:   m.Handler(),
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(m),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		rateLimiter.Stop()
		return nil
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
