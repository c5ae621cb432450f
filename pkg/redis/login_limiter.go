package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	log "nemesix/pkg/logger"
)

const (
	// LoginFailKeyPrefix 登录失败计数键前缀
	LoginFailKeyPrefix = "login_fail:"

	// DefaultLoginFailTTL 登录失败计数过期时间（15分钟）
	DefaultLoginFailTTL = 15 * time.Minute

	// DefaultMaxLoginAttempts 最大登录尝试次数
	DefaultMaxLoginAttempts = 5
)

// LoginLimiter 登录限制器接口，按邮箱计数
type LoginLimiter interface {
	// RecordLoginFail 记录登录失败（计数器+1）
	RecordLoginFail(ctx context.Context, email string) (int64, error)

	// GetLoginFailCount 获取登录失败次数
	GetLoginFailCount(ctx context.Context, email string) (int64, error)

	// IsLoginAllowed 检查是否允许登录（失败次数<上限）
	IsLoginAllowed(ctx context.Context, email string) (bool, error)

	// ResetLoginFail 重置登录失败计数（登录成功后调用）
	ResetLoginFail(ctx context.Context, email string) error
}

type loginLimiter struct {
	client  Client
	max     int64
	failTTL time.Duration
}

// NewLoginLimiter 创建登录限制器，非正数参数使用默认值
func NewLoginLimiter(client Client, max int, failTTL time.Duration) LoginLimiter {
	if max <= 0 {
		max = DefaultMaxLoginAttempts
	}
	if failTTL <= 0 {
		failTTL = DefaultLoginFailTTL
	}
	return &loginLimiter{client: client, max: int64(max), failTTL: failTTL}
}

// RecordLoginFail 记录登录失败
// 登录失败key设计: login_fail:alice@example.com
func (ll *loginLimiter) RecordLoginFail(ctx context.Context, email string) (int64, error) {
	key := loginFailKey(email)

	count, err := ll.client.Incr(ctx, key)
	if err != nil {
		log.Error("记录登录失败次数失败", zap.Error(err), zap.String("email", email))
		return 0, err
	}

	if count == 1 {
		if err := ll.client.Expire(ctx, key, ll.failTTL); err != nil {
			// 计数已成功，过期时间设置失败只记录日志
			log.Error("设置登录失败计数过期时间失败",
				zap.Error(err),
				zap.String("email", email),
				zap.String("key", key))
		}
	}

	log.Warn("记录登录失败", zap.String("email", email), zap.Int64("fail_count", count))
	return count, nil
}

func (ll *loginLimiter) GetLoginFailCount(ctx context.Context, email string) (int64, error) {
	countStr, err := ll.client.Get(ctx, loginFailKey(email))
	if err != nil {
		if IsNil(err) {
			return 0, nil
		}
		return 0, err
	}

	count, err := strconv.ParseInt(countStr, 10, 64)
	if err != nil {
		log.Error("解析登录失败计数失败",
			zap.Error(err),
			zap.String("email", email),
			zap.String("count_str", countStr))
		return 0, fmt.Errorf("解析登录失败计数失败: %w", err)
	}
	return count, nil
}

func (ll *loginLimiter) IsLoginAllowed(ctx context.Context, email string) (bool, error) {
	count, err := ll.GetLoginFailCount(ctx, email)
	if err != nil {
		return false, err
	}

	allowed := count < ll.max
	if !allowed {
		log.Warn("登录尝试次数过多", zap.String("email", email), zap.Int64("fail_count", count))
	}
	return allowed, nil
}

func (ll *loginLimiter) ResetLoginFail(ctx context.Context, email string) error {
	if err := ll.client.Del(ctx, loginFailKey(email)); err != nil {
		log.Error("重置登录失败计数失败", zap.Error(err), zap.String("email", email))
		return err
	}
	log.Debug("重置登录失败计数", zap.String("email", email))
	return nil
}

// loginFailKey 邮箱大小写不同视为同一账号
func loginFailKey(email string) string {
	return LoginFailKeyPrefix + strings.ToLower(email)
}
