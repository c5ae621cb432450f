package handler

import (
	"github.com/gin-gonic/gin"

	"nemesix/internal/health"
	"nemesix/pkg/response"
)

// HealthHandler 健康检查
type HealthHandler struct {
	checker *health.Checker
}

// NewHealthHandler 创建 HealthHandler 实例
func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health 健康时返回 200，否则 503
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.checker.Check(c.Request.Context())
	if !report.Healthy() {
		response.ErrorWithData(c, response.CodeServiceUnavailable, "", report)
		return
	}
	response.Success(c, report)
}
