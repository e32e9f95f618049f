package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"order-analytics/internal/analytics"
)

const maxTableRows = 50

var topCustomersTemplate = template.Must(template.New("topCustomers").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
<div id="customers-content">
<table class="modern-table">
<thead><tr><th>#</th><th>Customer</th><th>Revenue</th></tr></thead>
<tbody>
{{range $i, $e := .Data}}{{if lt $i $.MaxRows}}<tr>
<td>{{inc $i}}</td>
<td>{{$e.Key}}</td>
<td><strong>{{$e.Revenue.StringFixed 2}}</strong></td>
</tr>{{end}}{{end}}
</tbody>
</table>
</div>`))

var testStatusTemplate = template.Must(template.New("testStatus").Parse(
	`<div id="test-status" class="test-status {{.Class}}">{{.Text}}</div>`))

type SSEHandlers struct {
	analytics ReportSource
	tests     TestRunner
	logger    *slog.Logger
}

func NewSSEHandlers(analytics ReportSource, tests TestRunner, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		tests:     tests,
		logger:    logger,
	}
}

type templateData struct {
	Data    analytics.Series
	MaxRows int
}

func (h *SSEHandlers) renderTopCustomers(data analytics.Series) (string, error) {
	var buf strings.Builder

	if len(data) > maxTableRows {
		data = data[:maxTableRows]
	}

	err := topCustomersTemplate.Execute(&buf, templateData{Data: data, MaxRows: maxTableRows})
	return buf.String(), err
}

func renderTestStatus(class, text string) string {
	var buf strings.Builder
	_ = testStatusTemplate.Execute(&buf, struct{ Class, Text string }{class, text})
	return buf.String()
}

// HandleResults pushes every breakdown as signals and the top customers as a
// rendered table.
func (h *SSEHandlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, err := h.analytics.Report(r.Context())
	if err != nil {
		h.logger.Error("compute report", "error", err)
		sse.PatchElements(`<div id="results-error" class="error">Revenue report unavailable: the dataset contains invalid records.</div>`)
		return
	}

	html, err := h.renderTopCustomers(report.TopCustomers)
	if err != nil {
		h.logger.Error("render top customers", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"monthlyData":   report.RevenuePerMonth,
		"productsData":  report.RevenuePerProduct,
		"customersData": report.RevenuePerCustomer,
		"totalRevenue":  report.RevenuePerMonth.Total().StringFixed(2),
	})
	if err != nil {
		h.logger.Error("marshal report signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleTestStatus reports progress while the test suite runs.
func (h *SSEHandlers) HandleTestStatus(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	sse.PatchElements(renderTestStatus("running", "Running tests…"))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	status, err := h.tests.Run(r.Context())
	switch {
	case err != nil:
		h.logger.Error("run test suite", "error", err)
		sse.PatchElements(renderTestStatus("error", err.Error()))
	case status.Passed:
		sse.PatchElements(renderTestStatus("passed", testsPassedText))
	default:
		sse.PatchElements(renderTestStatus("failed", testsFailedText))
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
