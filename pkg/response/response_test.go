package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{CodeSuccess, http.StatusOK},
		{CodeInvalidParams, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeUserNotFound, http.StatusNotFound},
		{CodeEmailExists, http.StatusConflict},
		{CodeLoginLocked, http.StatusTooManyRequests},
		{CodeDatabaseError, http.StatusInternalServerError},
		{CodeServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), "code=%d", tt.code)
	}
}

func TestErrorUsesDefaultMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, CodeUnauthorized, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeUnauthorized, resp.Code)
	assert.Equal(t, "未认证", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, gin.H{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"OK","data":{"status":"ok"}}`, w.Body.String())
}

func TestGetMessageUnknown(t *testing.T) {
	assert.Equal(t, "未知错误", GetMessage(12345))
}
