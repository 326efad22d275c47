package httpadapter

import "context"

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request-id"
	ctxKeyRoute     ctxKey = "route"
)

// ----- request_id -----

func WithRequestID(ctx context.Context, rid string) context.Context {
	if rid == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyRequestID)
	s, ok := v.(string)
	return s, ok
}

// ----- route -----

// マッチしたルートパターンを mux の内側から外側のミドルウェアへ戻すための入れ物。
// 未マッチのままなら unmatchedRoute 扱い。
type routeInfo struct {
	pattern string
}

const unmatchedRoute = "unmatched"

func withRouteInfo(ctx context.Context) (context.Context, *routeInfo) {
	if ri := routeInfoFromContext(ctx); ri != nil {
		return ctx, ri
	}
	ri := &routeInfo{}
	return context.WithValue(ctx, ctxKeyRoute, ri), ri
}

func routeInfoFromContext(ctx context.Context) *routeInfo {
	ri, _ := ctx.Value(ctxKeyRoute).(*routeInfo)
	return ri
}

func (ri *routeInfo) label() string {
	if ri == nil || ri.pattern == "" {
		return unmatchedRoute
	}
	return ri.pattern
}
