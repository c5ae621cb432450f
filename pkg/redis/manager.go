package redis

import "time"

// Options Manager 可调参数，零值使用默认值
type Options struct {
	SessionTTL       time.Duration
	MaxLoginFailures int
	LoginFailTTL     time.Duration
}

// Manager 键值存储统一管理器接口
type Manager interface {
	// GetClient 获取基础客户端
	GetClient() Client

	// GetSession 获取Session管理器
	GetSession() SessionManager

	// GetLoginLimiter 获取登录限制器
	GetLoginLimiter() LoginLimiter

	// GetUserCache 获取用户缓存管理器
	GetUserCache() UserCache
}

type manager struct {
	client       Client
	session      SessionManager
	loginLimiter LoginLimiter
	userCache    UserCache
}

// NewManager 创建管理器
func NewManager(client Client, opts Options) Manager {
	return &manager{
		client:       client,
		session:      NewSessionManager(client, opts.SessionTTL),
		loginLimiter: NewLoginLimiter(client, opts.MaxLoginFailures, opts.LoginFailTTL),
		userCache:    NewUserCache(client),
	}
}

func (m *manager) GetClient() Client {
	return m.client
}

func (m *manager) GetSession() SessionManager {
	return m.session
}

func (m *manager) GetLoginLimiter() LoginLimiter {
	return m.loginLimiter
}

func (m *manager) GetUserCache() UserCache {
	return m.userCache
}
