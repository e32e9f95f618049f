package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"order-analytics/internal/analytics"
	"order-analytics/internal/errors"
	"order-analytics/internal/models"
	"order-analytics/internal/observability"
	"order-analytics/internal/testrunner"
)

const (
	cacheMaxAge     = "public, max-age=300"
	maxTopCustomers = 100

	testsPassedText = "Testing done and verified"
	testsFailedText = "Testing failed"
)

// ReportSource is the read side of the analytics service.
type ReportSource interface {
	Report(ctx context.Context) (*analytics.Report, error)
	RevenueByMonth(ctx context.Context) (analytics.Series, error)
	RevenueByProduct(ctx context.Context) (analytics.Series, error)
	RevenueByCustomer(ctx context.Context) (analytics.Series, error)
	TopCustomers(ctx context.Context, limit int) (analytics.Series, error)
	Stats() models.DatasetStats
}

type TestRunner interface {
	Run(ctx context.Context) (*testrunner.Status, error)
}

type APIHandlers struct {
	analytics ReportSource
	tests     TestRunner
	logger    *slog.Logger
}

func NewAPIHandlers(analytics ReportSource, tests TestRunner, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		tests:     tests,
		logger:    logger,
	}
}

// HandleResults writes the four breakdowns as one bare JSON object.
func (h *APIHandlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Report(r.Context())
	if err != nil {
		h.writeAggregationError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("encode results", "error", err)
	}
}

// HandleTestStatus runs the test suite and answers in plain text.
func (h *APIHandlers) HandleTestStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.tests.Run(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	switch {
	case err != nil:
		h.logger.Error("run test suite", "error", err, "request_id", observability.GetRequestID(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(err.Error()))
	case status.Passed:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testsPassedText))
	default:
		h.logger.Warn("test suite failed", "exit_code", status.ExitCode)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(testsFailedText))
	}
}

func (h *APIHandlers) HandleRevenueByMonth(w http.ResponseWriter, r *http.Request) {
	h.writeSeries(w, r, h.analytics.RevenueByMonth)
}

func (h *APIHandlers) HandleRevenueByProduct(w http.ResponseWriter, r *http.Request) {
	h.writeSeries(w, r, h.analytics.RevenueByProduct)
}

func (h *APIHandlers) HandleRevenueByCustomer(w http.ResponseWriter, r *http.Request) {
	h.writeSeries(w, r, h.analytics.RevenueByCustomer)
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	limit := analytics.DefaultTopCustomers
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopCustomers {
			errors.WriteError(r.Context(), w, h.logger,
				errors.BadRequest("limit must be an integer between 1 and 100"),
				observability.GetRequestID(r.Context()))
			return
		}
		limit = n
	}

	h.writeSeries(w, r, func(ctx context.Context) (analytics.Series, error) {
		return h.analytics.TopCustomers(ctx, limit)
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) writeSeries(w http.ResponseWriter, r *http.Request,
	fn func(context.Context) (analytics.Series, error)) {

	series, err := fn(r.Context())
	if err != nil {
		h.writeAggregationError(w, r, err)
		return
	}

	headers := map[string]string{
		"Cache-Control": cacheMaxAge,
	}
	errors.WriteSuccessWithHeaders(w, series, headers)
}

func (h *APIHandlers) writeAggregationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := observability.GetRequestID(r.Context())

	var appErr *errors.AppError
	switch {
	case analytics.IsDataError(err):
		appErr = errors.DataWrap(err, "Dataset contains a record that cannot be aggregated")
	case r.Context().Err() != nil:
		appErr = errors.ServiceUnavailable("Request cancelled")
		appErr.Cause = err
	default:
		appErr = errors.InternalWrap(err, "Failed to compute revenue")
	}
	errors.WriteError(r.Context(), w, h.logger, appErr, requestID)
}
