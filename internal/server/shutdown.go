package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"order-analytics/internal/config"
)

const hookTimeout = 10 * time.Second

// ShutdownHook releases a resource once the HTTP server has stopped
// accepting requests.
type ShutdownHook func(ctx context.Context) error

type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	config config.ServerConfig

	mu    sync.RWMutex
	hooks []ShutdownHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg *config.Config) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: cfg.Server,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(fn ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, fn)
}

// ListenAndServe serves on the configured address until SIGINT or SIGTERM.
func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests and runs the shutdown hooks.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.config.ReadTimeout,
			"write_timeout", gs.config.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		gs.logger.Info("shutdown signal received", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.config.ShutdownTimeout)
		defer cancel()

		return gs.shutdown(shutdownCtx)
	}
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.config.ShutdownTimeout)

	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	gs.logger.Info("HTTP server stopped gracefully")

	gs.mu.RLock()
	hooks := make([]ShutdownHook, len(gs.hooks))
	copy(hooks, gs.hooks)
	gs.mu.RUnlock()

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	for i, hook := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			gs.logger.Debug("executing shutdown hook", "hook_index", i)
			if err := hook(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook_index", i, "error", err)
				emu.Lock()
				errs = append(errs, fmt.Errorf("shutdown hook %d: %w", i, err))
				emu.Unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		gs.logger.Info("graceful shutdown completed")
		return errors.Join(errs...)
	case <-ctx.Done():
		gs.logger.Warn("shutdown timeout exceeded, forcing exit")
		return ctx.Err()
	}
}
