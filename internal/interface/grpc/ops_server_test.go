package grpcadapter

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startOpsServer(t *testing.T) (*OpsServer, healthpb.HealthClient) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewOpsServer(zap.NewNop())
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.GracefulStop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return s, healthpb.NewHealthClient(conn)
}

func TestOpsServer_HealthCheck(t *testing.T) {
	t.Parallel()

	s, client := startOpsServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for _, svc := range []string{"", TaskServiceName} {
		res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("Check(%q) returned error: %v", svc, err)
		}
		if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q): expected SERVING, got %v", svc, res.GetStatus())
		}
	}

	s.SetServing(false)

	res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: TaskServiceName})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %v", res.GetStatus())
	}
}

func TestOpsServer_UnknownService(t *testing.T) {
	t.Parallel()

	_, client := startOpsServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	t.Parallel()

	icpt := NewRecoveryUnaryInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Panic"}

	_, err := icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})

	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status error, got %v", err)
	}
	if st.Code() != codes.Internal {
		t.Errorf("expected code=%v, got %v", codes.Internal, st.Code())
	}
}

func TestLoggingUnaryInterceptor_PassesThrough(t *testing.T) {
	t.Parallel()

	icpt := NewLoggingUnaryInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := icpt(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "resp", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "resp" {
		t.Errorf("expected resp, got %v", resp)
	}
}
