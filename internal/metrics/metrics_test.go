package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output contains a metric line
// with the given name, labels and value. Uses regex to handle the OTel scope
// labels the Prometheus exporter interleaves with ours.
func assertMetricLine(t *testing.T, output, name string, labels []string, value string) {
	t.Helper()
	pattern := name + `\{[^}]*`
	for _, label := range labels {
		pattern += label + `[^}]*`
	}
	pattern += `\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()

	server := httptest.NewServer(provider.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestProvider(t *testing.T) {
	t.Run("NewProvider initializes the exporter", func(t *testing.T) {
		provider, err := NewProvider("fieldvault")
		require.NoError(t, err)
		assert.NotNil(t, provider.MeterProvider())
		assert.NotNil(t, provider.Handler())
	})

	t.Run("Shutdown flushes cleanly", func(t *testing.T) {
		provider, err := NewProvider("fieldvault")
		require.NoError(t, err)
		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}

func TestBusinessMetrics(t *testing.T) {
	t.Run("recorded operations appear in the exposition output", func(t *testing.T) {
		provider, err := NewProvider("fieldvault")
		require.NoError(t, err)

		bm, err := NewBusinessMetrics(provider.MeterProvider(), "fieldvault")
		require.NoError(t, err)

		ctx := context.Background()
		bm.RecordOperation(ctx, "records", "record_put", "success")
		bm.RecordOperation(ctx, "records", "record_put", "success")
		bm.RecordOperation(ctx, "records", "record_find", "error")
		bm.RecordDuration(ctx, "records", "record_put", 25*time.Millisecond, "success")

		output := scrape(t, provider)
		assertMetricLine(t, output, "fieldvault_operations_total",
			[]string{`domain="records"`, `operation="record_put"`, `status="success"`}, "2")
		assertMetricLine(t, output, "fieldvault_operations_total",
			[]string{`domain="records"`, `operation="record_find"`, `status="error"`}, "1")
		assert.Contains(t, output, "fieldvault_operation_duration_seconds")
	})

	t.Run("no-op implementation records nothing", func(t *testing.T) {
		bm := NewNoOpBusinessMetrics()
		bm.RecordOperation(context.Background(), "records", "record_put", "success")
		bm.RecordDuration(context.Background(), "records", "record_put", time.Millisecond, "success")
	})
}
