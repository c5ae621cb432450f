package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nemesix/config"
	"nemesix/internal/rpcserver"
	"nemesix/pkg/container"
	"nemesix/pkg/redis"

	log "nemesix/pkg/logger"
)

var (
	configPath = flag.String("config", "config/config.yaml", "配置文件路径")
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}

	// 2. 初始化日志
	logConfig := &log.Config{
		Level:    cfg.Log.Level,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}
	if err := log.Init(logConfig); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	defer log.Sync()

	log.Info("Web Server 启动中...")
	log.Info("配置加载成功",
		zap.String("config_path", *configPath),
		zap.String("database", cfg.Database.Driver),
		zap.String("session_store", cfg.Session.Store),
	)

	// 3. 初始化依赖注入容器
	if err := container.Init(); err != nil {
		log.Fatal("初始化容器失败", zap.Error(err))
	}

	// 4. 注册配置到容器（供依赖注入使用）
	if err := container.Container.Provide(func() *config.Config {
		return cfg
	}); err != nil {
		log.Fatal("注册配置失败", zap.Error(err))
	}
	log.Info("依赖注入容器初始化成功")

	// 5. 从容器获取路由与存储（数据库迁移在此完成）
	var (
		engine *gin.Engine
		sqlDB  *sqlx.DB
		kv     redis.Client
	)
	if err := container.Invoke(func(e *gin.Engine, d *sqlx.DB, c redis.Client) {
		engine, sqlDB, kv = e, d, c
	}); err != nil {
		log.Fatal("获取依赖失败", zap.Error(err))
	}
	log.Info("路由设置完成")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 6. 启动 gRPC 健康检查服务（可选）
	var grpcServer *rpcserver.Server
	if cfg.GRPC.Enabled {
		if err := container.Invoke(func(s *rpcserver.Server) {
			grpcServer = s
		}); err != nil {
			log.Fatal("获取 gRPC Server 失败", zap.Error(err))
		}

		addr := cfg.GRPC.GetAddr()
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatal("监听失败", zap.String("addr", addr), zap.Error(err))
		}

		go grpcServer.Watch(ctx)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				log.Error("gRPC Server 退出", zap.Error(err))
			}
		}()
	}

	// 7. 启动 HTTP Server（在 goroutine 中）
	srv := &http.Server{
		Addr:         cfg.Server.GetHTTPAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}
	go func() {
		log.Info("HTTP Server 启动成功",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("启动 HTTP Server 失败", zap.Error(err))
		}
	}()

	// 8. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("收到退出信号，开始优雅关闭...")

	// 9. 优雅关闭
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server 关闭失败", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := kv.Close(); err != nil {
		log.Error("关闭键值存储失败", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("关闭数据库失败", zap.Error(err))
	}
	log.Info("Web Server 已关闭")
}
