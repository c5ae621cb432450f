package router

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"nemesix/internal/handler"
	"nemesix/internal/middleware"
	"nemesix/internal/service"
	"nemesix/internal/view"
	"nemesix/pkg/snowflake"
)

// Deps 路由依赖
type Deps struct {
	UserHandler   *handler.UserHandler
	HealthHandler *handler.HealthHandler
	UserService   service.UserService
	SessionCookie *middleware.SessionCookie
	RateLimiter   *middleware.IPRateLimiter
	IDNode        *snowflake.Node

	// TrustedProxies 为空时 ClientIP 只取连接地址
	TrustedProxies []string
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) (*gin.Engine, error) {
	// 创建 Gin Engine（不使用默认中间件）
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("设置可信代理失败: %w", err)
	}
	r.SetHTMLTemplate(view.MustLoad())

	// 全局中间件
	r.Use(gin.Recovery())                                                     // Panic 恢复
	r.Use(middleware.RequestIDMiddleware(deps.IDNode))                        // 请求ID
	r.Use(middleware.LoggerMiddleware())                                      // 日志
	r.Use(middleware.SessionMiddleware(deps.UserService, deps.SessionCookie)) // 会话

	h := deps.UserHandler
	limit := middleware.RateLimitMiddleware(deps.RateLimiter)

	r.GET("/", h.Index)
	r.GET("/health", deps.HealthHandler.Health)

	// 认证相关
	r.GET("/register", h.RegisterPage)
	r.POST("/register", limit, h.Register)
	r.GET("/login", h.LoginPage)
	r.POST("/login", limit, h.Login)
	r.GET("/logout", h.Logout)

	// 需要登录
	auth := r.Group("", middleware.RequireLogin())
	{
		auth.GET("/dashboard", h.Dashboard)
		auth.GET("/profile", h.Profile)
		auth.POST("/profile", h.UpdateProfile)
		auth.POST("/profile/delete", h.DeleteProfile)
	}

	return r, nil
}
