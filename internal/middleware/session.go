package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemesix/config"
	"nemesix/internal/service"
	log "nemesix/pkg/logger"
	"nemesix/pkg/redis"
	"nemesix/pkg/response"
)

const (
	ctxSession = "session"
	ctxToken   = "session_token"
)

// SessionCookie 会话 Cookie 读写
type SessionCookie struct {
	Name   string
	MaxAge int // 秒
	Secure bool
}

// NewSessionCookie 根据配置创建
func NewSessionCookie(cfg *config.SessionConfig) *SessionCookie {
	return &SessionCookie{
		Name:   cfg.CookieName,
		MaxAge: int(cfg.GetTTL().Seconds()),
		Secure: cfg.Secure,
	}
}

// Set 写入会话 token
func (sc *SessionCookie) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, token, sc.MaxAge, "/", "", sc.Secure, true)
}

// Clear 删除会话 Cookie
func (sc *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// SessionMiddleware 解析会话 Cookie，有效时写入上下文
func SessionMiddleware(svc service.UserService, cookie *SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		data, err := svc.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(ctxSession, data)
			c.Set(ctxToken, token)
			// 服务端有效期已顺延，Cookie 同步顺延
			cookie.Set(c, token)
		case errors.Is(err, service.ErrInvalidToken):
			cookie.Clear(c)
		default:
			// 存储不可用时按未登录处理
			log.Error("校验会话失败", zap.Error(err), zap.String("request_id", RequestID(c)))
		}
		c.Next()
	}
}

// CurrentSession 当前登录用户，未登录返回 nil
func CurrentSession(c *gin.Context) *redis.SessionData {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	data, _ := v.(*redis.SessionData)
	return data
}

// SessionToken 当前会话 token
func SessionToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// RequireLogin 未登录时浏览器跳转登录页，JSON 客户端返回 401
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) != nil {
			c.Next()
			return
		}

		if WantsJSON(c) {
			response.Abort(c, response.CodeUnauthorized, "请先登录")
			return
		}
		AddFlash(c, FlashError, "请先登录")
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
	}
}
