package server

import (
	"log/slog"
	"net/http"

	"order-analytics/internal/handlers"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type Handlers struct {
	Dashboard http.HandlerFunc
	Metrics   http.Handler
}

func NewServer(analytics handlers.ReportSource, tests handlers.TestRunner, logger *slog.Logger, extra *Handlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, tests, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, tests, logger),
	}
	s.setupRoutes(extra)
	return s
}

func (s *Server) setupRoutes(extra *Handlers) {
	if extra != nil && extra.Dashboard != nil {
		s.mux.HandleFunc("GET /{$}", extra.Dashboard)
	}
	if extra != nil && extra.Metrics != nil {
		s.mux.Handle("GET /metrics", extra.Metrics)
	}
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	s.mux.HandleFunc("GET /results", s.apiHandlers.HandleResults)
	s.mux.HandleFunc("GET /test_status", s.apiHandlers.HandleTestStatus)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/revenue/month", s.apiHandlers.HandleRevenueByMonth)
	s.mux.HandleFunc("GET /api/revenue/product", s.apiHandlers.HandleRevenueByProduct)
	s.mux.HandleFunc("GET /api/revenue/customer", s.apiHandlers.HandleRevenueByCustomer)
	s.mux.HandleFunc("GET /api/top-customers", s.apiHandlers.HandleTopCustomers)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/results", s.sseHandlers.HandleResults)
	s.mux.HandleFunc("GET /sse/test-status", s.sseHandlers.HandleTestStatus)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
