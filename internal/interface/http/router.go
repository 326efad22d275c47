package httpadapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/hijjiri/tasklist/internal/observability"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	// nil ならグローバルの TracerProvider
	TracerProvider trace.TracerProvider

	AllowOrigin    string
	RequestTimeout time.Duration
}

// NewRouter は REST のルーティングとミドルウェアを組み立てる。
// マッチしないリクエスト（メソッド違いを含む）はすべて 404 の envelope になる。
func NewRouter(h *TaskHandler, opts RouterOptions) (http.Handler, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}

	mux := runtime.NewServeMux(
		runtime.WithRoutingErrorHandler(routeNotFound),
	)

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/tasks", h.ListTasks},
		{http.MethodPost, "/tasks", h.CreateTask},
		{http.MethodGet, "/tasks/{id}", h.GetTask},
		{http.MethodPut, "/tasks/{id}", h.UpdateTask},
		{http.MethodDelete, "/tasks/{id}", h.DeleteTask},
		{http.MethodGet, "/health", h.Health},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, withRoute(rt.pattern, rt.handler)); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}

	// 外側から順に: CORS → route 入れ物 → request_id → tracing → access log/metrics → recovery → timeout
	var handler http.Handler = mux
	handler = withTimeout(opts.RequestTimeout)(handler)
	handler = withRecovery(opts.Logger)(handler)
	handler = withAccessLog(opts.Logger, opts.Metrics)(handler)
	handler = withTracing(opts.TracerProvider)(handler)
	handler = withRequestID(handler)
	handler = withRouteHolder(handler)
	handler = withCORS(opts.AllowOrigin)(handler)

	return handler, nil
}

// withRoute はマッチしたパターンを routeInfo に書き戻す。
func withRoute(pattern string, next runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		if ri := routeInfoFromContext(r.Context()); ri != nil {
			ri.pattern = pattern
		}
		next(w, r, params)
	}
}

// routeNotFound は runtime.ServeMux のルーティングエラー（404/405 など）を
// 一律で「route not found」にする。
func routeNotFound(
	ctx context.Context,
	mux *runtime.ServeMux,
	marshaler runtime.Marshaler,
	w http.ResponseWriter,
	r *http.Request,
	httpStatus int,
) {
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}
