package testrunner

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-analytics/internal/config"
	"order-analytics/internal/metrics"
)

func newRunner(t *testing.T, command string, timeout time.Duration) *Runner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.TestRunnerConfig{
		Command: []string{"sh", "-c", command},
		WorkDir: t.TempDir(),
		Timeout: timeout,
	}, logger, nil)
}

func TestRunner_Passed(t *testing.T) {
	r := newRunner(t, "echo ok", time.Minute)

	status, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Passed)
	assert.Equal(t, 0, status.ExitCode)
	assert.Contains(t, status.Output, "ok")
	assert.False(t, status.StartedAt.IsZero())
}

func TestRunner_Failed(t *testing.T) {
	r := newRunner(t, "echo broken >&2; exit 3", time.Minute)

	status, err := r.Run(context.Background())
	require.NoError(t, err, "a failing suite is not a runner error")
	assert.False(t, status.Passed)
	assert.Equal(t, 3, status.ExitCode)
	assert.Contains(t, status.Output, "broken")
}

func TestRunner_Timeout(t *testing.T) {
	r := newRunner(t, "sleep 5", 50*time.Millisecond)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunner_MissingBinary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(config.TestRunnerConfig{
		Command: []string{"definitely-not-a-real-binary-xyz"},
		WorkDir: t.TempDir(),
		Timeout: time.Second,
	}, logger, nil)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start test command")
}

func TestRunner_EmptyCommand(t *testing.T) {
	r := New(config.TestRunnerConfig{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunner_ConcurrentCallersShareRun(t *testing.T) {
	r := newRunner(t, "echo run >> runs.log; sleep 0.2; cat runs.log", time.Minute)

	var wg sync.WaitGroup
	results := make([]*Status, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := r.Run(context.Background())
			assert.NoError(t, err)
			results[i] = status
		}()
	}
	wg.Wait()

	for _, status := range results {
		require.NotNil(t, status)
		assert.True(t, status.Passed)
	}
	assert.LessOrEqual(t, strings.Count(results[0].Output, "run"), len(results))
}

func TestRunner_CallerCancelled(t *testing.T) {
	r := newRunner(t, "sleep 1", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_RecordsOutcome(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	m := metrics.New()
	r := New(config.TestRunnerConfig{
		Command: []string{"sh", "-c", "exit 1"},
		WorkDir: t.TempDir(),
		Timeout: time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), m)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TestRuns.WithLabelValues("failed")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "cde", truncate("abcde", 3))
}
