// Package rpcserver 提供 grpc.health.v1 健康检查服务
package rpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"nemesix/internal/health"
	log "nemesix/pkg/logger"
)

// ServiceName 对外暴露的服务名，空字符串代表整体状态
const ServiceName = "nemesix.UserPortal"

// Server gRPC 服务
type Server struct {
	grpc     *grpc.Server
	health   *grpchealth.Server
	checker  *health.Checker
	interval time.Duration
}

// New 创建 gRPC 服务并注册健康检查
func New(checker *health.Checker, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(), // 最外层
			LoggingInterceptor(),
		),
	)
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpc:     gs,
		health:   hs,
		checker:  checker,
		interval: interval,
	}
}

// Serve 阻塞直到监听关闭
func (s *Server) Serve(lis net.Listener) error {
	log.Info("gRPC Server 启动成功", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Refresh 执行一次健康检查并更新服务状态
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if report := s.checker.Check(ctx); !report.Healthy() {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		log.Warn("健康检查未通过",
			zap.String("database", report.Database),
			zap.String("kv", report.KV),
		)
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Watch 按间隔刷新状态，直到 ctx 取消
func (s *Server) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// GracefulStop 标记为不可用后优雅关闭
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
	log.Info("gRPC Server 已关闭")
}
