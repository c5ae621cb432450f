// Package health 汇总数据库与键值存储的可用性
package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	log "nemesix/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	componentOK    = "ok"
	componentError = "error" // 细节只写日志
)

// DBPinger *sqlx.DB 满足该接口
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// KVPinger redis.Client 满足该接口
type KVPinger interface {
	Ping(ctx context.Context) error
}

// UserCounter repository.UserRepository 满足该接口
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Report 健康检查结果
type Report struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	KV       string `json:"kv"`
	Users    int64  `json:"users"`
}

// Healthy 数据库和键值存储均可用
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Checker 健康检查
type Checker struct {
	db      DBPinger
	kv      KVPinger
	users   UserCounter
	timeout time.Duration
}

// NewChecker 创建健康检查器
func NewChecker(db DBPinger, kv KVPinger, users UserCounter) *Checker {
	return &Checker{db: db, kv: kv, users: users, timeout: 2 * time.Second}
}

// Check 执行一次检查，单项超时 2 秒
func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := Report{Status: StatusHealthy, Database: componentOK, KV: componentOK}

	if err := c.db.PingContext(ctx); err != nil {
		log.Warn("数据库健康检查失败", zap.Error(err))
		report.Database = componentError
		report.Status = StatusUnhealthy
	} else if n, err := c.users.Count(ctx); err != nil {
		log.Warn("统计用户数失败", zap.Error(err))
		report.Database = componentError
		report.Status = StatusUnhealthy
	} else {
		report.Users = n
	}

	if err := c.kv.Ping(ctx); err != nil {
		log.Warn("键值存储健康检查失败", zap.Error(err))
		report.KV = componentError
		report.Status = StatusUnhealthy
	}

	return report
}
