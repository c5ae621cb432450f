package redis

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"nemesix/internal/model"
	log "nemesix/pkg/logger"
)

const (
	// UserCacheKeyPrefix 用户缓存键前缀
	// 缓存键设计示例：user:123
	UserCacheKeyPrefix = "user:"

	// UserCacheTTL 用户缓存过期时间（30分钟）
	UserCacheTTL = 30 * time.Minute

	// NullCacheTTL 负缓存过期时间（5分钟）
	NullCacheTTL = 5 * time.Minute
)

// CachedUser 缓存的用户信息
// 包含密码哈希，缓存命中时可以完整还原 model.User
type CachedUser struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Null         bool      `json:"null,omitempty"` // 负缓存标记
}

// ToModel 转换为 model.User
func (c *CachedUser) ToModel() *model.User {
	return &model.User{
		ID:        c.ID,
		Username:  c.Username,
		Email:     c.Email,
		Password:  c.PasswordHash,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// UserCache 用户缓存管理器接口
type UserCache interface {
	// GetUser 获取用户缓存
	// hit=false 表示未命中；hit=true 且 user=nil 表示命中负缓存
	GetUser(ctx context.Context, userID uint64) (user *CachedUser, hit bool, err error)

	// SetUser 设置用户缓存（TTL: 30分钟）
	SetUser(ctx context.Context, user *model.User) error

	// SetNullCache 设置负缓存（用户不存在时，TTL: 5分钟）
	SetNullCache(ctx context.Context, userID uint64) error

	// DeleteUser 删除用户缓存
	DeleteUser(ctx context.Context, userID uint64) error
}

type userCache struct {
	client Client
}

// NewUserCache 创建用户缓存管理器
func NewUserCache(client Client) UserCache {
	return &userCache{client: client}
}

func userCacheKey(userID uint64) string {
	return UserCacheKeyPrefix + strconv.FormatUint(userID, 10)
}

func (uc *userCache) GetUser(ctx context.Context, userID uint64) (*CachedUser, bool, error) {
	var user CachedUser
	if err := uc.client.GetJSON(ctx, userCacheKey(userID), &user); err != nil {
		if IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if user.Null {
		log.Debug("命中负缓存", zap.Uint64("user_id", userID))
		return nil, true, nil
	}

	log.Debug("命中用户缓存", zap.Uint64("user_id", userID))
	return &user, true, nil
}

func (uc *userCache) SetUser(ctx context.Context, user *model.User) error {
	cachedUser := &CachedUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.Password,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	if err := uc.client.SetJSON(ctx, userCacheKey(user.ID), cachedUser, UserCacheTTL); err != nil {
		log.Error("设置用户缓存失败", zap.Error(err), zap.Uint64("user_id", user.ID))
		return err
	}

	log.Debug("设置用户缓存成功", zap.Uint64("user_id", user.ID))
	return nil
}

func (uc *userCache) SetNullCache(ctx context.Context, userID uint64) error {
	nullUser := &CachedUser{ID: userID, Null: true}

	if err := uc.client.SetJSON(ctx, userCacheKey(userID), nullUser, NullCacheTTL); err != nil {
		log.Error("设置负缓存失败", zap.Error(err), zap.Uint64("user_id", userID))
		return err
	}

	log.Debug("设置负缓存成功", zap.Uint64("user_id", userID))
	return nil
}

func (uc *userCache) DeleteUser(ctx context.Context, userID uint64) error {
	if err := uc.client.Del(ctx, userCacheKey(userID)); err != nil {
		log.Error("删除用户缓存失败", zap.Error(err), zap.Uint64("user_id", userID))
		return err
	}
	log.Debug("删除用户缓存成功", zap.Uint64("user_id", userID))
	return nil
}
