package container

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/dig"

	"nemesix/config"
	"nemesix/internal/handler"
	"nemesix/internal/health"
	"nemesix/internal/middleware"
	"nemesix/internal/repository"
	"nemesix/internal/router"
	"nemesix/internal/rpcserver"
	"nemesix/internal/service"
	"nemesix/pkg/db"
	"nemesix/pkg/redis"
	"nemesix/pkg/snowflake"
)

// Container 全局依赖注入容器
var Container *dig.Container

// Init 初始化依赖注入容器
func Init() error {
	Container = dig.New()

	// 注册所有依赖
	if err := registerProviders(); err != nil {
		return err
	}

	return nil
}

// registerProviders 注册所有提供者
// 配置由调用方注册
func registerProviders() error {
	providers := []interface{}{
		// 存储
		func(cfg *config.Config) (*sqlx.DB, error) {
			return db.InitDB(&cfg.Database)
		},
		newKVClient,
		func(cfg *config.Config, client redis.Client) redis.Manager {
			return redis.NewManager(client, redis.Options{
				SessionTTL:       cfg.Session.GetTTL(),
				MaxLoginFailures: cfg.Security.MaxLoginFailures,
				LoginFailTTL:     cfg.Security.GetLoginFailWindow(),
			})
		},
		func(sqlDB *sqlx.DB, kv redis.Manager) repository.UserRepository {
			return repository.NewCachedUserRepository(repository.NewUserRepository(sqlDB), kv.GetUserCache())
		},

		// 业务
		func(cfg *config.Config, repo repository.UserRepository, kv redis.Manager) service.UserService {
			return service.NewUserService(repo, kv, service.Options{BcryptCost: cfg.Security.BcryptCost})
		},
		func(sqlDB *sqlx.DB, client redis.Client, repo repository.UserRepository) *health.Checker {
			return health.NewChecker(sqlDB, client, repo)
		},

		// HTTP
		func(cfg *config.Config) *middleware.SessionCookie {
			return middleware.NewSessionCookie(&cfg.Session)
		},
		func(cfg *config.Config) *middleware.IPRateLimiter {
			return middleware.NewIPRateLimiter(cfg.Security.RequestsPerMinute, cfg.Security.Burst)
		},
		func(cfg *config.Config) (*snowflake.Node, error) {
			return snowflake.NewNode(cfg.Snowflake.MachineID)
		},
		handler.NewUserHandler,
		handler.NewHealthHandler,
		newEngine,

		// gRPC
		func(cfg *config.Config, checker *health.Checker) *rpcserver.Server {
			return rpcserver.New(checker, cfg.GRPC.GetHealthInterval())
		},
	}

	for _, p := range providers {
		if err := Container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

// newKVClient 根据 session.store 选择 Redis 或进程内实现
func newKVClient(cfg *config.Config) (redis.Client, error) {
	if cfg.Session.Store == "redis" {
		return redis.InitRedis(&cfg.Redis)
	}
	return redis.NewMemoryClient(), nil
}

type engineParams struct {
	dig.In

	UserHandler   *handler.UserHandler
	HealthHandler *handler.HealthHandler
	UserService   service.UserService
	SessionCookie *middleware.SessionCookie
	RateLimiter   *middleware.IPRateLimiter
	IDNode        *snowflake.Node
}

func newEngine(cfg *config.Config, p engineParams) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)
	return router.SetupRouter(router.Deps{
		UserHandler:   p.UserHandler,
		HealthHandler: p.HealthHandler,
		UserService:   p.UserService,
		SessionCookie: p.SessionCookie,
		RateLimiter:   p.RateLimiter,
		IDNode:        p.IDNode,

		TrustedProxies: cfg.Server.TrustedProxies,
	})
}

// Invoke 调用函数，自动注入依赖
func Invoke(function interface{}) error {
	return Container.Invoke(function)
}
