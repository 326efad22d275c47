package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveHTTP(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveHTTP("GET", "/tasks", 200, 10*time.Millisecond)
	m.ObserveHTTP("GET", "/tasks", 200, 20*time.Millisecond)
	m.ObserveHTTP("GET", "/tasks/{id}", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/tasks", "200")); got != 2 {
		t.Errorf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/tasks/{id}", "404")); got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveHTTP("GET", "/tasks", 200, time.Millisecond)
}

func TestRegisterStoreSize(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	size := 2
	RegisterStoreSize(reg, func() int { return size })

	expected := `
# HELP tasks_store_size Number of tasks currently held by the store.
# TYPE tasks_store_size gauge
tasks_store_size 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "tasks_store_size"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveHTTP("POST", "/tasks", 201, time.Millisecond)

	rec := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `tasks_http_requests_total{code="201",method="POST",route="/tasks"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", rec.Body.String())
	}
}
