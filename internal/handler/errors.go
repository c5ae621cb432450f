package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemesix/internal/dto"
	"nemesix/internal/middleware"
	"nemesix/internal/service"
	log "nemesix/pkg/logger"
	"nemesix/pkg/response"
)

// errorCode 业务错误 → 错误码
func errorCode(err error) int {
	var verr *dto.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.CodeInvalidParams
	case errors.Is(err, service.ErrInvalidCredentials):
		return response.CodeInvalidCredentials
	case errors.Is(err, service.ErrEmailTaken):
		return response.CodeEmailExists
	case errors.Is(err, service.ErrUsernameTaken):
		return response.CodeUsernameTaken
	case errors.Is(err, service.ErrUserExists):
		return response.CodeConflict
	case errors.Is(err, service.ErrLoginLimitExceeded):
		return response.CodeLoginLocked
	case errors.Is(err, service.ErrUserNotFound):
		return response.CodeUserNotFound
	case errors.Is(err, service.ErrInvalidToken):
		return response.CodeSessionExpired
	case errors.Is(err, service.ErrSessionCreateFailed):
		return response.CodeRedisError
	default:
		return response.CodeInternalServerError
	}
}

// jsonError JSON 客户端的错误响应，校验错误附带全部失败项
func jsonError(c *gin.Context, err error) {
	code := errorCode(err)
	if code >= response.CodeInternalServerError {
		logUnexpected(c, err)
		response.Error(c, code, "")
		return
	}

	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		response.ErrorWithData(c, code, "", gin.H{"errors": verr.Messages()})
		return
	}
	response.Error(c, code, err.Error())
}

// flashError 浏览器的错误提示，校验错误逐条提示
func flashError(c *gin.Context, err error) {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		for _, msg := range verr.Messages() {
			middleware.AddFlash(c, middleware.FlashError, msg)
		}
		return
	}

	if errorCode(err) >= response.CodeInternalServerError {
		logUnexpected(c, err)
		middleware.AddFlash(c, middleware.FlashError, "服务器内部错误，请稍后再试")
		return
	}
	middleware.AddFlash(c, middleware.FlashError, err.Error())
}

func logUnexpected(c *gin.Context, err error) {
	log.Error("请求处理失败",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.RequestID(c)),
	)
}
