package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"nemesix/internal/model"
	log "nemesix/pkg/logger"
	"nemesix/pkg/redis"
)

// cachedUserRepository 为 GetByID 增加缓存，写操作后删除缓存
// 缓存读写失败只记录日志，不影响数据库结果
type cachedUserRepository struct {
	UserRepository
	cache redis.UserCache
}

// NewCachedUserRepository 包装已有仓储
func NewCachedUserRepository(repo UserRepository, cache redis.UserCache) UserRepository {
	return &cachedUserRepository{UserRepository: repo, cache: cache}
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	cached, hit, err := r.cache.GetUser(ctx, id)
	if err != nil {
		log.Warn("读取用户缓存失败，回源数据库", zap.Error(err), zap.Uint64("user_id", id))
	} else if hit {
		if cached == nil {
			return nil, ErrUserNotFound
		}
		return cached.ToModel(), nil
	}

	user, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = r.cache.SetNullCache(ctx, id)
		}
		return nil, err
	}

	_ = r.cache.SetUser(ctx, user)
	return user, nil
}

func (r *cachedUserRepository) Create(ctx context.Context, user *model.User) (uint64, error) {
	id, err := r.UserRepository.Create(ctx, user)
	if err != nil {
		return 0, err
	}
	// 清除可能存在的负缓存
	r.invalidate(ctx, id)
	return id, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	err := r.UserRepository.Update(ctx, id, fields)
	r.invalidate(ctx, id)
	return err
}

func (r *cachedUserRepository) Delete(ctx context.Context, id uint64) error {
	err := r.UserRepository.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *cachedUserRepository) invalidate(ctx context.Context, id uint64) {
	if err := r.cache.DeleteUser(ctx, id); err != nil {
		log.Warn("删除用户缓存失败", zap.Error(err), zap.Uint64("user_id", id))
	}
}
