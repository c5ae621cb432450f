package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemesix/internal/dto"
	"nemesix/internal/middleware"
	"nemesix/internal/service"
	log "nemesix/pkg/logger"
	"nemesix/pkg/response"
)

const requestTimeout = 5 * time.Second

// ============================================================================
// Handler 结构体
// ============================================================================

type UserHandler struct {
	svc    service.UserService
	cookie *middleware.SessionCookie
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(svc service.UserService, cookie *middleware.SessionCookie) *UserHandler {
	return &UserHandler{svc: svc, cookie: cookie}
}

// ============================================================================
// 表单结构体
// ============================================================================

type RegisterForm struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type LoginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type UpdateProfileForm struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// bindForm 同时支持表单与 JSON 请求体
func bindForm(c *gin.Context, form any, back string) bool {
	if err := c.ShouldBind(form); err != nil {
		if middleware.WantsJSON(c) {
			response.Error(c, response.CodeInvalidParams, "")
			return false
		}
		middleware.AddFlash(c, middleware.FlashError, "请求参数错误")
		redirect(c, back)
		return false
	}
	return true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// ============================================================================
// 页面
// ============================================================================

// Index 首页
func (h *UserHandler) Index(c *gin.Context) {
	render(c, "index.html", "首页", nil)
}

// LoginPage 登录页，已登录时跳转到用户列表
func (h *UserHandler) LoginPage(c *gin.Context) {
	if middleware.CurrentSession(c) != nil {
		redirect(c, "/dashboard")
		return
	}
	render(c, "login.html", "登录", nil)
}

// RegisterPage 注册页
func (h *UserHandler) RegisterPage(c *gin.Context) {
	if middleware.CurrentSession(c) != nil {
		redirect(c, "/dashboard")
		return
	}
	render(c, "register.html", "注册", nil)
}

// ============================================================================
// 注册 / 登录 / 登出
// ============================================================================

// Register 注册，成功后跳转登录页
func (h *UserHandler) Register(c *gin.Context) {
	var form RegisterForm
	if !bindForm(c, &form, "/register") {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.svc.Register(ctx, &dto.RegisterDTO{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if middleware.WantsJSON(c) {
		if err != nil {
			jsonError(c, err)
			return
		}
		response.Success(c, profile)
		return
	}
	if err != nil {
		flashError(c, err)
		redirect(c, "/register")
		return
	}

	middleware.AddFlash(c, middleware.FlashSuccess, "注册成功，请登录")
	redirect(c, "/login")
}

// Login 登录，成功后写入会话 Cookie
func (h *UserHandler) Login(c *gin.Context) {
	var form LoginForm
	if !bindForm(c, &form, "/login") {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.svc.Login(ctx, &dto.LoginDTO{Email: form.Email, Password: form.Password})
	if err != nil {
		if middleware.WantsJSON(c) {
			jsonError(c, err)
			return
		}
		flashError(c, err)
		redirect(c, "/login")
		return
	}

	// 旧会话作废，防止会话固定
	if old := middleware.SessionToken(c); old != "" {
		_ = h.svc.Logout(ctx, old)
	}

	h.cookie.Set(c, result.Token)
	if middleware.WantsJSON(c) {
		response.Success(c, result.Profile)
		return
	}
	middleware.AddFlash(c, middleware.FlashSuccess, "登录成功")
	redirect(c, "/dashboard")
}

// Logout 登出
func (h *UserHandler) Logout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Logout(ctx, middleware.SessionToken(c)); err != nil {
		log.Error("登出失败", zap.Error(err), zap.String("request_id", middleware.RequestID(c)))
	}

	h.cookie.Clear(c)
	middleware.AddFlash(c, middleware.FlashInfo, "已退出登录")
	redirect(c, "/")
}

// ============================================================================
// 需要登录的页面
// ============================================================================

// Dashboard 用户列表
func (h *UserHandler) Dashboard(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.svc.ListUsers(ctx)
	if middleware.WantsJSON(c) {
		if err != nil {
			jsonError(c, err)
			return
		}
		response.Success(c, users)
		return
	}
	if err != nil {
		flashError(c, err)
		redirect(c, "/")
		return
	}

	render(c, "dashboard.html", "用户列表", gin.H{"Users": users})
}

// Profile 当前用户资料，用户已被删除时清除会话
func (h *UserHandler) Profile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sess := middleware.CurrentSession(c)
	profile, err := h.svc.GetProfile(ctx, sess.UserID)
	if middleware.WantsJSON(c) {
		if err != nil {
			jsonError(c, err)
			return
		}
		response.Success(c, profile)
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.dropSession(ctx, c)
			return
		}
		flashError(c, err)
		redirect(c, "/")
		return
	}

	render(c, "profile.html", "个人资料", gin.H{"Profile": profile})
}

// UpdateProfile 修改用户名、邮箱或密码，留空的字段不修改
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var form UpdateProfileForm
	if !bindForm(c, &form, "/profile") {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess := middleware.CurrentSession(c)
	profile, err := h.svc.UpdateUser(ctx, &dto.UpdateUserDTO{
		UserID:   sess.UserID,
		Username: &form.Username,
		Email:    &form.Email,
		Password: &form.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.dropSession(ctx, c)
			return
		}
		flashError(c, err)
		redirect(c, "/profile")
		return
	}

	if err := h.svc.RefreshSessionUser(ctx, middleware.SessionToken(c), profile); err != nil {
		log.Warn("同步会话用户名失败", zap.Error(err), zap.Uint64("user_id", profile.ID))
	}

	middleware.AddFlash(c, middleware.FlashSuccess, "资料已更新")
	redirect(c, "/profile")
}

// DeleteProfile 注销账号
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sess := middleware.CurrentSession(c)
	if err := h.svc.DeleteUser(ctx, sess.UserID, middleware.SessionToken(c)); err != nil && !errors.Is(err, service.ErrUserNotFound) {
		flashError(c, err)
		redirect(c, "/profile")
		return
	}

	h.cookie.Clear(c)
	middleware.AddFlash(c, middleware.FlashSuccess, "账号已注销")
	redirect(c, "/")
}

// dropSession 会话指向的用户已不存在
func (h *UserHandler) dropSession(ctx context.Context, c *gin.Context) {
	_ = h.svc.Logout(ctx, middleware.SessionToken(c))
	h.cookie.Clear(c)
	middleware.AddFlash(c, middleware.FlashError, "用户不存在，请重新登录")
	redirect(c, "/login")
}
