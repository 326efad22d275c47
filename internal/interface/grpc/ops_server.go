package grpcadapter

import (
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// TaskServiceName は health の per-service ステータスに使う名前。
const TaskServiceName = "tasklist.TaskService"

// OpsServer は運用向けの gRPC サーバ（grpc.health.v1 + reflection）。
// タスク API 自体は HTTP 側で提供する。
type OpsServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

func NewOpsServer(logger *zap.Logger) *OpsServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			NewRecoveryUnaryInterceptor(logger),
			NewLoggingUnaryInterceptor(logger),
		),
		grpc.ChainStreamInterceptor(
			NewRecoveryStreamInterceptor(logger),
			NewLoggingStreamInterceptor(logger),
		),
	)

	// ---- Health & Reflection ----
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	reflection.Register(srv)

	s := &OpsServer{
		server: srv,
		health: healthSrv,
		logger: logger,
	}
	s.SetServing(true)
	return s
}

// SetServing は全体（""）と TaskServiceName のステータスをまとめて切り替える。
func (s *OpsServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(TaskServiceName, st)
}

func (s *OpsServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC ops server is starting", zap.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// GracefulStop は NOT_SERVING にしてから停止する。
func (s *OpsServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
