package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hijjiri/tasklist/internal/config"
	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
	"github.com/hijjiri/tasklist/internal/infrastructure/memory"
	mysqlrepo "github.com/hijjiri/tasklist/internal/infrastructure/mysql"
	grpcadapter "github.com/hijjiri/tasklist/internal/interface/grpc"
	httpadapter "github.com/hijjiri/tasklist/internal/interface/http"
	"github.com/hijjiri/tasklist/internal/observability"
	task_usecase "github.com/hijjiri/tasklist/internal/usecase/task"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

//----------------------
// Repository の選択
//----------------------

// newRepository は cfg.Store に応じてリポジトリを作る。
// 返す cleanup は DB を閉じる（memory のときは何もしない）。
func newRepository(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (domain_task.Repository, func(), error) {
	switch cfg.Store {
	case config.StoreMySQL:
		db, err := mysqlrepo.Open(ctx, cfg.DB.MySQLDSN(), logger, 20, 3*time.Second)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("connected to MySQL",
			zap.String("host", cfg.DB.Host),
			zap.String("port", cfg.DB.Port),
			zap.String("db", cfg.DB.Name),
		)

		repo := mysqlrepo.NewTaskRepository(db, logger)
		if err := repo.Migrate(ctx, domain_task.Seed()); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { closeDB(db, logger) }, nil

	default:
		repo := memory.NewTaskRepository(domain_task.Seed()...)
		observability.RegisterStoreSize(reg, repo.Len)
		return repo, func() {}, nil
	}
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close db", zap.Error(err))
	}
}

//----------------------
// main
//----------------------

func main() {
	// ---- Logger（設定を読むまでの仮）----
	bootLogger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// ---- Config 読み込み ----
	cfg, err := config.Load(bootLogger)
	if err != nil {
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		bootLogger.Fatal("failed to init logger", zap.String("level", cfg.LogLevel), zap.Error(err))
	}
	_ = bootLogger.Sync()
	defer logger.Sync()

	logger.Info("loaded config",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.String("grpc_health_addr", cfg.GRPCHealthAddr),
		zap.String("store", cfg.Store),
		zap.Bool("tracing_stdout", cfg.TracingStdout),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Tracing ----
	tp, err := observability.NewTracerProvider(ctx, cfg.TracingStdout, os.Stdout)
	if err != nil {
		logger.Fatal("failed to init tracer provider", zap.Error(err))
	}

	// ---- Task Service ----
	reg := prometheus.DefaultRegisterer
	repo, closeRepo, err := newRepository(ctx, cfg, logger, reg)
	if err != nil {
		logger.Fatal("failed to init repository", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeRepo()

	uc := task_usecase.New(repo, logger)
	handler := httpadapter.NewTaskHandler(uc, logger)

	router, err := httpadapter.NewRouter(handler, httpadapter.RouterOptions{
		Logger:         logger,
		Metrics:        observability.NewMetrics(reg),
		TracerProvider: tp,
		AllowOrigin:    cfg.CORSAllowOrigin,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 3)

	go func() {
		logger.Info("HTTP server is starting", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// ---- metrics HTTP サーバ (/metrics) ----
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler(prometheus.DefaultGatherer))
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("metrics server started", zap.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// ---- gRPC health サーバ ----
	var ops *grpcadapter.OpsServer
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCHealthAddr), zap.Error(err))
		}

		ops = grpcadapter.NewOpsServer(logger)
		go func() {
			logger.Info("gRPC health server is starting", zap.String("addr", cfg.GRPCHealthAddr))
			if err := ops.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server exited with error", zap.Error(err))
	}

	// ---- Graceful shutdown ----
	// 先に NOT_SERVING にしてロードバランサから外してもらう
	if ops != nil {
		ops.SetServing(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	if ops != nil {
		ops.GracefulStop()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer provider shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
