package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nemesix/internal/middleware"
)

// render 渲染页面，自动带上当前用户与提示消息
func render(c *gin.Context, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["User"] = middleware.CurrentSession(c)
	data["Flashes"] = middleware.PopFlashes(c)
	c.HTML(http.StatusOK, name, data)
}

// redirect PRG 跳转
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
