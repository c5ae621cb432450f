// Package migrations 内嵌各数据库方言的建表脚本
package migrations

import "embed"

// FS 目录结构：<dialect>/<version>_<name>.<up|down>.sql
//
//go:embed sqlite/*.sql mysql/*.sql postgres/*.sql
var FS embed.FS
