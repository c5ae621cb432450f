// Package view 内嵌的 HTML 模板
package view

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
}

// Load 解析全部模板，页面模板名与文件名一致（如 login.html）
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// MustLoad 解析失败直接 panic，用于启动阶段
func MustLoad() *template.Template {
	return template.Must(Load())
}
