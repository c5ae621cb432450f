package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// FlashCookieName 一次性提示消息 Cookie
	FlashCookieName = "flash"

	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"

	flashMaxAge = 60 // 秒
	ctxFlashes  = "flashes"
)

// Flash 一次性提示消息
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// AddFlash 追加提示消息，下一次渲染页面时展示
func AddFlash(c *gin.Context, category, message string) {
	flashes := append(pendingFlashes(c), Flash{Category: category, Message: message})
	c.Set(ctxFlashes, flashes)
	writeFlashCookie(c, flashes)
}

// PopFlashes 取出全部提示消息并清空
func PopFlashes(c *gin.Context) []Flash {
	flashes := pendingFlashes(c)
	if len(flashes) > 0 || hasFlashCookie(c) {
		c.Set(ctxFlashes, []Flash{})
		writeFlashCookie(c, nil)
	}
	return flashes
}

// pendingFlashes 请求携带的消息加上本次请求新增的消息
func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(ctxFlashes); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	flashes := decodeFlashes(c)
	c.Set(ctxFlashes, flashes)
	return flashes
}

func hasFlashCookie(c *gin.Context) bool {
	v, err := c.Cookie(FlashCookieName)
	return err == nil && v != ""
}

func decodeFlashes(c *gin.Context) []Flash {
	raw, err := c.Cookie(FlashCookieName)
	if err != nil || raw == "" {
		return []Flash{}
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return []Flash{}
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return []Flash{}
	}
	return flashes
}

// writeFlashCookie 覆盖本次响应中已写入的 flash Cookie
func writeFlashCookie(c *gin.Context, flashes []Flash) {
	header := c.Writer.Header()
	var kept []string
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, FlashCookieName+"=") {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}

	cookie := &http.Cookie{
		Name:     FlashCookieName,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if len(flashes) == 0 {
		cookie.MaxAge = -1
	} else {
		data, _ := json.Marshal(flashes)
		cookie.Value = base64.RawURLEncoding.EncodeToString(data)
		cookie.MaxAge = flashMaxAge
	}
	http.SetCookie(c.Writer, cookie)
}
