package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "lextriage"}, nil)
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
}

func TestCounterExposedOnHandler(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("things_total", "Things counted", "kind")
	counter.WithLabelValues("widget").Inc()
	counter.WithLabelValues("widget").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, `lextriage_things_total{kind="widget"} 3`)
}

func TestGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)

	gauge := c.RegisterGauge("depth", "Queue depth", "queue")
	gauge.WithLabelValues("main").Set(7)

	hist := c.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1}, "op")
	hist.WithLabelValues("search").Observe(0.05)

	body := scrape(t, c)
	assert.Contains(t, body, `lextriage_depth{queue="main"} 7`)
	assert.Contains(t, body, `lextriage_latency_seconds_bucket{op="search",le="0.1"} 1`)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "First", "l")
	assert.Panics(t, func() {
		c.RegisterCounter("dup_total", "Second", "l")
	})
}

func TestNewAppMetrics(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.ClassifyTotal.WithLabelValues("ok").Inc()
	m.ScorerFailures.WithLabelValues("zero_shot").Inc()
	m.IndexSize.WithLabelValues("memory").Set(42)

	body := scrape(t, c)
	assert.Contains(t, body, `lextriage_classify_total{status="ok"} 1`)
	assert.Contains(t, body, `lextriage_classify_scorer_failures_total{method="zero_shot"} 1`)
	assert.Contains(t, body, `lextriage_retrieval_index_size{backend="memory"} 42`)
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
