package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Render(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Dashboard().Render(context.Background(), &buf))

	html := buf.String()
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, datastarScript)
	assert.Contains(t, html, `@get('/sse/results')`)
	assert.Contains(t, html, `@get('/sse/test-status')`)
	assert.Contains(t, html, `id="customers-content"`)
	assert.Contains(t, html, `id="test-status"`)
}

func TestDashboard_DisplaysEverySignal(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Dashboard().Render(context.Background(), &buf))
	html := buf.String()

	for _, signal := range []string{"monthlyData", "productsData", "customersData"} {
		assert.Contains(t, html, "data-json-signals=\"{include: /"+signal+"/}\"", signal)
	}
	assert.Contains(t, html, `data-text="$totalRevenue"`)
}
