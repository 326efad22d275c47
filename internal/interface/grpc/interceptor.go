package grpcadapter

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ---- Recovery ----

// Unary 用 Recovery interceptor
func NewRecoveryUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, r, info.FullMethod)
				err = status.Error(codes.Internal, "internal error")
			}
		}()

		return handler(ctx, req)
	}
}

// Streaming 用 Recovery interceptor
func NewRecoveryStreamInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, r, info.FullMethod)
				err = status.Error(codes.Internal, "internal error")
			}
		}()

		return handler(srv, ss)
	}
}

func logPanic(logger *zap.Logger, r any, method string) {
	logger.Error("panic recovered in gRPC handler",
		zap.Any("panic", r),
		zap.String("method", method),
		zap.ByteString("stacktrace", debug.Stack()),
	)
}

// ---- Logging ----

// NewLoggingUnaryInterceptor logs unary RPCs with method, code and duration.
// ヘルスチェックは頻繁に叩かれるので、成功時は debug に落とす。
func NewLoggingUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logRPC(logger, "gRPC unary request", info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// NewLoggingStreamInterceptor logs stream RPCs (health Watch など).
func NewLoggingStreamInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		logRPC(logger, "gRPC stream request", info.FullMethod, time.Since(start), err)
		return err
	}
}

func logRPC(logger *zap.Logger, msg, method string, d time.Duration, err error) {
	code := status.Code(err)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("duration", d),
	}

	lvl := zapcore.InfoLevel
	switch {
	case err != nil && code != codes.Canceled:
		lvl = zapcore.ErrorLevel
		fields = append(fields, zap.Error(err))
	case strings.HasPrefix(method, "/grpc.health.v1.Health/"):
		lvl = zapcore.DebugLevel
	}

	if ce := logger.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}
