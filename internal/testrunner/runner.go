// Package testrunner runs the aggregation test suite as a subprocess and
// reports whether it passed.
package testrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"order-analytics/internal/config"
	"order-analytics/internal/metrics"
)

// maxOutput bounds the captured combined output kept in a Status.
const maxOutput = 64 << 10

type Status struct {
	Passed    bool          `json:"passed"`
	ExitCode  int           `json:"exit_code"`
	Output    string        `json:"output,omitempty"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

type Runner struct {
	command []string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// New builds a runner; m may be nil.
func New(cfg config.TestRunnerConfig, logger *slog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		command: cfg.Command,
		workDir: cfg.WorkDir,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: m,
	}
}

// Run executes the test command. A failing suite is reported through
// Status.Passed; an error means the command could not be run at all.
// Concurrent callers share the in-flight run.
func (r *Runner) Run(ctx context.Context) (*Status, error) {
	ch := r.group.DoChan("run", func() (any, error) {
		// The shared run outlives any single caller's request.
		status, err := r.run(context.WithoutCancel(ctx))
		r.record(status, err)
		return status, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Status), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) run(ctx context.Context) (*Status, error) {
	if len(r.command) == 0 {
		return nil, errors.New("no test command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Dir = r.workDir
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	status := &Status{StartedAt: time.Now()}
	r.logger.Info("running test suite", "command", strings.Join(r.command, " "), "dir", r.workDir)

	err := cmd.Run()
	status.Duration = time.Since(status.StartedAt)
	status.Output = truncate(out.String(), maxOutput)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		status.Passed = true
	case ctx.Err() != nil:
		return nil, fmt.Errorf("test suite timed out after %s: %w", r.timeout, ctx.Err())
	case errors.As(err, &exitErr):
		status.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("start test command: %w", err)
	}

	r.logger.Info("test suite finished",
		"passed", status.Passed,
		"exit_code", status.ExitCode,
		"duration", status.Duration,
	)
	return status, nil
}

func (r *Runner) record(status *Status, err error) {
	if r.metrics == nil {
		return
	}
	outcome := "error"
	switch {
	case err != nil:
	case status.Passed:
		outcome = "passed"
	default:
		outcome = "failed"
	}
	r.metrics.TestRuns.WithLabelValues(outcome).Inc()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
