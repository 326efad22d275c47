package httpadapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
	"github.com/hijjiri/tasklist/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil, RouterOptions{AllowOrigin: "http://localhost:5173"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/tasks/1", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected allow origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") || !strings.Contains(got, "DELETE") {
		t.Errorf("unexpected allow methods %q", got)
	}
}

func TestCORS_DefaultOriginOnEveryResponse(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil, RouterOptions{})

	for _, path := range []string{"/tasks", "/nope"} {
		rec, _ := do(t, h, http.MethodGet, path, "")
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s: expected allow origin *, got %q", path, got)
		}
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil, RouterOptions{})

	rec, _ := do(t, h, http.MethodGet, "/tasks", "")
	rid := rec.Header().Get(headerRequestID)
	if _, err := uuid.Parse(rid); err != nil {
		t.Errorf("expected generated uuid request id, got %q", rid)
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set(headerRequestID, "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(headerRequestID); got != "client-supplied" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	uc := &fakeUsecase{
		listFn: func(ctx context.Context) ([]*domain_task.Task, error) {
			panic("boom")
		},
	}
	h := newTestRouter(t, uc, RouterOptions{})

	rec, env := do(t, h, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env.Success || env.Message != msgInternal {
		t.Errorf("unexpected envelope: %#v", env)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	uc := &fakeUsecase{
		listFn: func(ctx context.Context) ([]*domain_task.Task, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected request context to carry a deadline")
			}
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	h := newTestRouter(t, uc, RouterOptions{RequestTimeout: 20 * time.Millisecond})

	rec, env := do(t, h, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if env.Message != msgTimeout {
		t.Errorf("expected message %q, got %q", msgTimeout, env.Message)
	}
}

func TestTracing_SpanNamedAfterRoute(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := newTestRouter(t, nil, RouterOptions{TracerProvider: tp})

	do(t, h, http.MethodGet, "/tasks/1", "")
	do(t, h, http.MethodGet, "/nope", "")

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	if spans[0].Name() != "GET /tasks/{id}" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if !hasAttr(spans[0].Attributes(), attribute.Int("http.response.status_code", 200)) {
		t.Errorf("missing status attribute: %v", spans[0].Attributes())
	}
	if spans[1].Name() != "GET "+unmatchedRoute {
		t.Errorf("unexpected span name %q", spans[1].Name())
	}
}

func TestMetrics_RecordedByRoute(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	h := newTestRouter(t, nil, RouterOptions{Metrics: observability.NewMetrics(reg)})

	do(t, h, http.MethodGet, "/tasks/1", "")
	do(t, h, http.MethodGet, "/tasks/2", "")
	do(t, h, http.MethodGet, "/nope", "")

	rec := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`tasks_http_requests_total{code="200",method="GET",route="/tasks/{id}"} 2`,
		`tasks_http_requests_total{code="404",method="GET",route="unmatched"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv.Key == want.Key && kv.Value == want.Value {
			return true
		}
	}
	return false
}
