package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"order-analytics/internal/analytics"
	"order-analytics/internal/dataset"
	"order-analytics/internal/metrics"
	"order-analytics/internal/models"
	"order-analytics/internal/observability"
)

// Analytics serves revenue breakdowns over a dataset snapshot that is loaded
// once and only read afterwards.
type Analytics struct {
	mu      sync.RWMutex
	dataset analytics.Dataset
	stats   models.DatasetStats
	report  *analytics.Report

	topN    int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analytics) { a.metrics = m }
}

func WithTopCustomers(n int) Option {
	return func(a *Analytics) {
		if n > 0 {
			a.topN = n
		}
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		dataset: analytics.Dataset{},
		topN:    analytics.DefaultTopCustomers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData replaces the snapshot. The caller must not modify data afterwards.
func (a *Analytics) SetData(data []models.Order) {
	a.setSnapshot(analytics.Dataset(data), "")
}

func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	ctx, span := observability.StartSpan(ctx, "dataset.load", attribute.String("dataset.path", filename))

	start := time.Now()
	a.logger.Info("loading CSV file", "filename", filename)

	ds, err := dataset.Load(ctx, filename)
	observability.EndSpan(span, err)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	a.setSnapshot(ds, filename)

	duration := time.Since(start)
	a.logger.Info("csv loading complete",
		"records", len(ds),
		"duration", duration,
	)
	return nil
}

func (a *Analytics) setSnapshot(ds analytics.Dataset, source string) {
	products := make(map[string]struct{})
	customers := make(map[string]struct{})
	for _, o := range ds {
		products[o.ProductID] = struct{}{}
		customers[o.CustomerID] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.dataset = ds
	a.report = nil
	a.stats = models.DatasetStats{
		Source:    source,
		Records:   len(ds),
		Products:  len(products),
		Customers: len(customers),
		LoadedAt:  time.Now(),
	}
	if a.metrics != nil {
		a.metrics.DatasetRows.Set(float64(len(ds)))
	}
}

func (a *Analytics) snapshot() analytics.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Report computes the four breakdowns concurrently. Any data error fails the
// whole report. A successful report is reused until the snapshot changes.
func (a *Analytics) Report(ctx context.Context) (*analytics.Report, error) {
	a.mu.RLock()
	cached := a.report
	ds := a.dataset
	a.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	ctx, span := observability.StartSpan(ctx, "analytics.report", attribute.Int("dataset.rows", len(ds)))
	start := time.Now()

	var report analytics.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.RevenuePerMonth, err = a.aggregate(gctx, "revenue_by_month", ds, analytics.RevenueByMonth)
		return err
	})
	g.Go(func() (err error) {
		report.RevenuePerProduct, err = a.aggregate(gctx, "revenue_by_product", ds, analytics.RevenueByProduct)
		return err
	})
	g.Go(func() (err error) {
		report.RevenuePerCustomer, err = a.aggregate(gctx, "revenue_by_customer", ds, analytics.RevenueByCustomer)
		return err
	})
	g.Go(func() (err error) {
		report.TopCustomers, err = a.aggregate(gctx, "top_customers", ds, a.topCustomers)
		return err
	})

	err := g.Wait()
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.ReportLatency.Observe(time.Since(start).Seconds())
	}

	a.mu.Lock()
	if sameDataset(a.dataset, ds) {
		a.report = &report
		a.stats.ReportedAt = time.Now()
	}
	a.mu.Unlock()

	return &report, nil
}

func (a *Analytics) RevenueByMonth(ctx context.Context) (analytics.Series, error) {
	return a.aggregate(ctx, "revenue_by_month", a.snapshot(), analytics.RevenueByMonth)
}

func (a *Analytics) RevenueByProduct(ctx context.Context) (analytics.Series, error) {
	return a.aggregate(ctx, "revenue_by_product", a.snapshot(), analytics.RevenueByProduct)
}

func (a *Analytics) RevenueByCustomer(ctx context.Context) (analytics.Series, error) {
	return a.aggregate(ctx, "revenue_by_customer", a.snapshot(), analytics.RevenueByCustomer)
}

func (a *Analytics) TopCustomers(ctx context.Context, limit int) (analytics.Series, error) {
	return a.aggregate(ctx, "top_customers", a.snapshot(), func(ds analytics.Dataset) (analytics.Series, error) {
		return analytics.TopCustomers(ds, limit)
	})
}

func (a *Analytics) topCustomers(ds analytics.Dataset) (analytics.Series, error) {
	return analytics.TopCustomers(ds, a.topN)
}

func (a *Analytics) aggregate(ctx context.Context, name string, ds analytics.Dataset,
	fn func(analytics.Dataset) (analytics.Series, error)) (analytics.Series, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := observability.StartSpan(ctx, "analytics."+name)
	s, err := fn(ds)
	observability.EndSpan(span, err)

	var de *analytics.DataError
	if errors.As(err, &de) {
		a.logger.Warn("aggregation aborted by bad record",
			"aggregation", name,
			"row", de.Row,
			"order_id", de.OrderID,
			"field", de.Field,
			"value", de.Value,
		)
		if a.metrics != nil {
			a.metrics.DataErrors.WithLabelValues(de.Field).Inc()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

func (a *Analytics) Stats() models.DatasetStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// sameDataset reports whether a and b are the same snapshot.
func sameDataset(a, b analytics.Dataset) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
