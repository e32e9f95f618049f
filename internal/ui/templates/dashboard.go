package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

const dashboardHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Order Revenue</title>
<script type="module" src="`

const dashboardBody = `"></script>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
.modern-table{border-collapse:collapse;min-width:24rem}
.modern-table th,.modern-table td{padding:.4rem .8rem;border-bottom:1px solid #e4e7eb;text-align:left}
.test-status.passed{color:#1b873f}.test-status.failed,.test-status.error,.error{color:#c62828}
</style>
</head>
<body data-signals="{monthlyData:{},productsData:{},customersData:{},totalRevenue:''}" data-on-load="@get('/sse/results')">
<h1>Order Revenue</h1>
<p>Total revenue: <strong data-text="$totalRevenue"></strong></p>
<div id="results-error"></div>
<section>
<h2>Top customers</h2>
<div id="customers-content">Loading…</div>
</section>
<section>
<h2>Revenue per month</h2>
<pre id="monthly-content" data-json-signals="{include: /monthlyData/}"></pre>
</section>
<section>
<h2>Revenue per product</h2>
<pre id="products-content" data-json-signals="{include: /productsData/}"></pre>
</section>
<section>
<h2>Revenue per customer</h2>
<pre id="revenue-customers-content" data-json-signals="{include: /customersData/}"></pre>
</section>
<section>
<h2>Tests</h2>
<button data-on-click="@get('/sse/test-status')">Run tests</button>
<div id="test-status"></div>
</section>
</body>
</html>
`

// Dashboard renders the single-page revenue dashboard. Data arrives over the
// /sse endpoints once the page has loaded.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, dashboardHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(datastarScript)); err != nil {
			return err
		}
		_, err := io.WriteString(w, dashboardBody)
		return err
	})
}
