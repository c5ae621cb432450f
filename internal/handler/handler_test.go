package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"nemesix/internal/dto"
	"nemesix/internal/health"
	"nemesix/internal/service"
	"nemesix/pkg/logger"
	"nemesix/pkg/response"
)

func TestMain(m *testing.M) {
	if err := logger.Init(&logger.Config{Level: "fatal", Output: "stdout"}); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"校验失败", &dto.ValidationError{Errors: []error{dto.ErrEmailInvalid}}, response.CodeInvalidParams},
		{"凭证错误", service.ErrInvalidCredentials, response.CodeInvalidCredentials},
		{"邮箱重复", fmt.Errorf("wrap: %w", service.ErrEmailTaken), response.CodeEmailExists},
		{"用户名重复", service.ErrUsernameTaken, response.CodeUsernameTaken},
		{"并发冲突", service.ErrUserExists, response.CodeConflict},
		{"登录锁定", service.ErrLoginLimitExceeded, response.CodeLoginLocked},
		{"用户不存在", service.ErrUserNotFound, response.CodeUserNotFound},
		{"会话失效", service.ErrInvalidToken, response.CodeSessionExpired},
		{"会话创建失败", service.ErrSessionCreateFailed, response.CodeRedisError},
		{"未知错误", errors.New("boom"), response.CodeInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestJSONError_HidesUnexpectedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	jsonError(c, errors.New("dial tcp 10.0.0.1:3306: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
	assert.Contains(t, w.Body.String(), response.GetMessage(response.CodeInternalServerError))
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }
func (s stubPinger) Ping(context.Context) error        { return s.err }

type stubCounter struct{ n int64 }

func (s stubCounter) Count(context.Context) (int64, error) { return s.n, nil }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		kvErr    error
		wantCode int
	}{
		{"全部可用", nil, nil, http.StatusOK},
		{"数据库不可用", errors.New("db down"), nil, http.StatusServiceUnavailable},
		{"键值存储不可用", nil, errors.New("kv down"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := health.NewChecker(stubPinger{tt.dbErr}, stubPinger{tt.kvErr}, stubCounter{3})
			h := NewHealthHandler(checker)

			r := gin.New()
			r.GET("/health", h.Health)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), `"status"`)
		})
	}
}
