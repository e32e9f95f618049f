package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-analytics/internal/config"
	"order-analytics/internal/metrics"
	"order-analytics/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("first"), mark("second"), mark("third"))(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err, "generated request id should be a uuid")
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "client-id", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 2})
	t.Cleanup(limiter.Stop)
	h := RateLimit(limiter, discardLogger())(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := NewRateLimiter(config.SecurityConfig{EnableRateLimit: false, RateLimitRPS: 1, RateLimitBurst: 1})
	t.Cleanup(limiter.Stop)
	for range 5 {
		assert.True(t, limiter.Allow("10.0.0.2"))
	}
}

func TestRateLimiter_ActiveClientKeepsBucket(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 1},
		func() time.Time { return clock })
	t.Cleanup(limiter.Stop)

	require.True(t, limiter.Allow("10.0.0.3"))

	// Keep the client busy well past the idle TTL; its drained bucket must
	// not be replaced by a fresh one.
	for range 5 {
		clock = clock.Add(limiterIdleTTL / 2)
		assert.False(t, limiter.Allow("10.0.0.3"))
		assert.Zero(t, limiter.evictIdle())
	}

	clock = clock.Add(limiterIdleTTL + time.Second)
	assert.Equal(t, 1, limiter.evictIdle())
	assert.True(t, limiter.Allow("10.0.0.3"), "idle client starts with a new bucket")
}

func TestRateLimiter_EvictsOnlyIdle(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 10, RateLimitBurst: 10},
		func() time.Time { return clock })
	t.Cleanup(limiter.Stop)

	limiter.Allow("10.0.0.4")
	clock = clock.Add(limiterIdleTTL)
	limiter.Allow("10.0.0.5")
	clock = clock.Add(time.Second)

	assert.Equal(t, 1, limiter.evictIdle())
	limiter.mu.Lock()
	_, stale := limiter.visitors["10.0.0.4"]
	_, active := limiter.visitors["10.0.0.5"]
	limiter.mu.Unlock()
	assert.False(t, stale)
	assert.True(t, active)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 1})
	limiter.Stop()
	limiter.Stop()

	select {
	case <-limiter.stop:
	default:
		t.Fatal("stop channel not closed")
	}
}

func TestCORS(t *testing.T) {
	h := CORS(config.SecurityConfig{AllowedOrigins: []string{"http://ok.test"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/results", nil)
	req.Header.Set("Origin", "http://ok.test")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://ok.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/results", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTrustedProxy(t *testing.T) {
	var forwarded string
	h := TrustedProxy(config.SecurityConfig{TrustedProxies: []string{"127.0.0.1"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.Header.Get("X-Forwarded-For")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:999"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, forwarded)

	req.RemoteAddr = "127.0.0.1:999"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "1.2.3.4", forwarded)
}

func TestMetrics_RoutePattern(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("GET /results", okHandler())

	h := Metrics(m)(mux)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/results", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET /results", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "404")))
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
