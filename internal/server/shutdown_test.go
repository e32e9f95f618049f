package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-analytics/internal/config"
)

func newGraceful(t *testing.T, handler http.Handler) (*GracefulServer, net.Listener) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: 5 * time.Second}}
	return NewGracefulServer(&http.Server{Handler: handler}, testLogger(), cfg), ln
}

func TestGracefulServer_ServeAndShutdown(t *testing.T) {
	gs, ln := newGraceful(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	var hooks atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		hooks.Add(1)
		return nil
	})
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		hooks.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, int32(2), hooks.Load())
}

func TestGracefulServer_HookErrors(t *testing.T) {
	gs, ln := newGraceful(t, http.NotFoundHandler())

	errFlush := errors.New("flush failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return errFlush })
	gs.RegisterShutdownHook(func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gs.Serve(ctx, ln)
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlush)
}

func TestGracefulServer_ServeError(t *testing.T) {
	gs, ln := newGraceful(t, http.NotFoundHandler())
	require.NoError(t, ln.Close())

	err := gs.Serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
}
