package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	log "nemesix/pkg/logger"
)

const (
	// DefaultSessionTTL Session默认过期时间（2小时）
	DefaultSessionTTL = 2 * time.Hour

	// SessionKeyPrefix Session键前缀
	SessionKeyPrefix = "sess:"
)

// ErrSessionNotFound Session不存在或已过期
var ErrSessionNotFound = errors.New("session无效或已过期")

// SessionData Session中保存的用户信息
type SessionData struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
}

// SessionManager Session管理器接口
type SessionManager interface {
	// CreateSession 创建Session（生成token并存储）
	CreateSession(ctx context.Context, userID uint64, username string) (string, error)

	// ValidateSession 验证Session（根据token获取用户信息）
	ValidateSession(ctx context.Context, token string) (*SessionData, error)

	// UpdateSession 覆盖Session中的用户信息（修改用户名后调用）
	UpdateSession(ctx context.Context, token string, data *SessionData) error

	// DestroySession 销毁Session（登出时删除token）
	DestroySession(ctx context.Context, token string) error

	// RefreshSession 刷新Session（延长有效期）
	RefreshSession(ctx context.Context, token string) error
}

type sessionManager struct {
	client Client
	ttl    time.Duration
}

// NewSessionManager 创建Session管理器，ttl<=0 时使用默认值
func NewSessionManager(client Client, ttl time.Duration) SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionManager{client: client, ttl: ttl}
}

func (sm *sessionManager) CreateSession(ctx context.Context, userID uint64, username string) (string, error) {
	token := uuid.New().String()
	key := SessionKeyPrefix + token

	data := &SessionData{UserID: userID, Username: username}
	if err := sm.client.SetJSON(ctx, key, data, sm.ttl); err != nil {
		log.Error("创建Session失败", zap.Error(err), zap.Uint64("user_id", userID))
		return "", fmt.Errorf("创建Session失败: %w", err)
	}

	log.Info("创建Session成功", zap.Uint64("user_id", userID))
	return token, nil
}

func (sm *sessionManager) ValidateSession(ctx context.Context, token string) (*SessionData, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	var data SessionData
	if err := sm.client.GetJSON(ctx, SessionKeyPrefix+token, &data); err != nil {
		if IsNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("读取Session失败: %w", err)
	}
	return &data, nil
}

func (sm *sessionManager) UpdateSession(ctx context.Context, token string, data *SessionData) error {
	if err := sm.client.SetJSON(ctx, SessionKeyPrefix+token, data, sm.ttl); err != nil {
		log.Error("更新Session失败", zap.Error(err), zap.Uint64("user_id", data.UserID))
		return fmt.Errorf("更新Session失败: %w", err)
	}
	return nil
}

func (sm *sessionManager) DestroySession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, SessionKeyPrefix+token); err != nil {
		log.Error("销毁Session失败", zap.Error(err))
		return err
	}
	log.Debug("销毁Session成功")
	return nil
}

func (sm *sessionManager) RefreshSession(ctx context.Context, token string) error {
	return sm.client.Expire(ctx, SessionKeyPrefix+token, sm.ttl)
}
