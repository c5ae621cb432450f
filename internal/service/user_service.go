package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nemesix/internal/dto"
	"nemesix/internal/repository"
	log "nemesix/pkg/logger"
	"nemesix/pkg/redis"
)

// ============================================================================
// 业务错误定义
// ============================================================================

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrEmailTaken          = errors.New("该邮箱已被注册")
	ErrUsernameTaken       = errors.New("该用户名已被使用")
	ErrUserExists          = errors.New("用户名或邮箱已被使用")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrPasswordHashFailed  = errors.New("密码哈希失败")
	ErrSessionCreateFailed = errors.New("创建会话失败")
	ErrInvalidToken        = errors.New("会话无效或已过期")
	ErrLoginLimitExceeded  = errors.New("登录失败次数过多，请稍后再试")
)

// Options 业务参数
type Options struct {
	BcryptCost int
}

// ============================================================================
// UserService 接口
// ============================================================================

type UserService interface {
	// Register 注册新用户
	Register(ctx context.Context, registerDTO *dto.RegisterDTO) (*dto.UserProfileDTO, error)

	// Login 用户登录（邮箱 + 密码）
	Login(ctx context.Context, loginDTO *dto.LoginDTO) (*dto.LoginResultDTO, error)

	// Logout 用户登出，token 为空时不做任何事
	Logout(ctx context.Context, token string) error

	// Authenticate 校验会话，确认用户仍存在并刷新有效期
	Authenticate(ctx context.Context, token string) (*redis.SessionData, error)

	// RefreshSessionUser 用户名变更后同步会话中的用户信息
	RefreshSessionUser(ctx context.Context, token string, profile *dto.UserProfileDTO) error

	// ListUsers 查询全部用户
	ListUsers(ctx context.Context) ([]*dto.UserProfileDTO, error)

	// GetProfile 获取用户信息
	GetProfile(ctx context.Context, userID uint64) (*dto.UserProfileDTO, error)

	// UpdateUser 更新用户名、邮箱或密码
	UpdateUser(ctx context.Context, updateDTO *dto.UpdateUserDTO) (*dto.UserProfileDTO, error)

	// DeleteUser 删除用户并销毁当前会话
	DeleteUser(ctx context.Context, userID uint64, token string) error
}

// ============================================================================
// userService 实现
// ============================================================================

type userService struct {
	userRepo   repository.UserRepository
	kv         redis.Manager
	bcryptCost int
}

// NewUserService 创建UserService实例
func NewUserService(userRepo repository.UserRepository, kv redis.Manager, opts Options) UserService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		userRepo:   userRepo,
		kv:         kv,
		bcryptCost: cost,
	}
}

// ============================================================================
// Register 注册
// ============================================================================

func (s *userService) Register(ctx context.Context, registerDTO *dto.RegisterDTO) (*dto.UserProfileDTO, error) {
	// 1. 规范化并验证DTO
	registerDTO.Normalize()
	if err := registerDTO.Validate(); err != nil {
		log.Warn("注册参数验证失败", zap.Error(err), zap.String("email", registerDTO.Email))
		return nil, err
	}

	// 2. 预检查邮箱、用户名是否已存在
	if err := s.checkAvailable(ctx, 0, &registerDTO.Username, &registerDTO.Email); err != nil {
		return nil, err
	}

	// 3. 哈希密码
	hash, err := s.hashPassword(registerDTO.Password)
	if err != nil {
		return nil, err
	}

	// 4. 写入数据库
	user := registerDTO.ToModel(hash)
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// 预检查与写入之间被并发注册
			return nil, ErrUserExists
		}
		log.Error("创建用户失败", zap.Error(err), zap.String("username", registerDTO.Username))
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	log.Info("用户注册成功", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
	return dto.ToProfile(user), nil
}

// ============================================================================
// Login 登录
// ============================================================================

func (s *userService) Login(ctx context.Context, loginDTO *dto.LoginDTO) (*dto.LoginResultDTO, error) {
	// 1. 验证DTO
	loginDTO.Normalize()
	if err := loginDTO.Validate(); err != nil {
		log.Warn("登录参数验证失败", zap.Error(err), zap.String("email", loginDTO.Email))
		return nil, err
	}

	limiter := s.kv.GetLoginLimiter()

	// 2. 检查登录失败次数限制
	allowed, err := limiter.IsLoginAllowed(ctx, loginDTO.Email)
	if err != nil {
		// 降级策略：限制器不可用时不影响登录流程
		log.Error("获取登录失败次数失败", zap.Error(err), zap.String("email", loginDTO.Email))
		allowed = true
	}
	if !allowed {
		return nil, ErrLoginLimitExceeded
	}

	// 3. 查询用户
	user, err := s.userRepo.GetByEmail(ctx, loginDTO.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Error("查询用户失败", zap.Error(err), zap.String("email", loginDTO.Email))
			return nil, fmt.Errorf("查询用户失败: %w", err)
		}
		log.Warn("用户不存在", zap.String("email", loginDTO.Email))
		s.recordLoginFail(ctx, loginDTO.Email)
		return nil, ErrInvalidCredentials
	}

	// 4. 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginDTO.Password)); err != nil {
		log.Warn("密码错误", zap.String("email", loginDTO.Email), zap.Error(err))
		s.recordLoginFail(ctx, loginDTO.Email)
		return nil, ErrInvalidCredentials
	}

	// 5. 创建Session
	token, err := s.kv.GetSession().CreateSession(ctx, user.ID, user.Username)
	if err != nil {
		log.Error("创建Session失败", zap.Error(err), zap.Uint64("user_id", user.ID))
		return nil, ErrSessionCreateFailed
	}

	// 6. 清空登录失败次数
	if err := limiter.ResetLoginFail(ctx, loginDTO.Email); err != nil {
		log.Error("重置登录失败次数失败", zap.Error(err))
	}

	log.Info("用户登录成功", zap.String("email", loginDTO.Email), zap.Uint64("user_id", user.ID))
	return &dto.LoginResultDTO{
		Token:   token,
		Profile: dto.ToProfile(user),
	}, nil
}

func (s *userService) recordLoginFail(ctx context.Context, email string) {
	if _, err := s.kv.GetLoginLimiter().RecordLoginFail(ctx, email); err != nil {
		log.Error("记录登录失败次数失败", zap.Error(err))
	}
}

// ============================================================================
// Logout / Authenticate 会话
// ============================================================================

func (s *userService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.kv.GetSession().DestroySession(ctx, token); err != nil {
		return fmt.Errorf("登出失败: %w", err)
	}
	log.Info("用户登出成功")
	return nil
}

func (s *userService) Authenticate(ctx context.Context, token string) (*redis.SessionData, error) {
	sessions := s.kv.GetSession()

	data, err := sessions.ValidateSession(ctx, token)
	if err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("校验会话失败: %w", err)
	}

	// 用户已注销时会话随之作废，查询失败则沿用会话
	if _, err := s.userRepo.GetByID(ctx, data.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if err := sessions.DestroySession(ctx, token); err != nil {
				log.Warn("销毁失效Session失败", zap.Error(err), zap.Uint64("user_id", data.UserID))
			}
			return nil, ErrInvalidToken
		}
		log.Warn("校验会话用户失败", zap.Error(err), zap.Uint64("user_id", data.UserID))
	}

	// 滑动过期
	if err := sessions.RefreshSession(ctx, token); err != nil {
		log.Warn("刷新Session失败", zap.Error(err), zap.Uint64("user_id", data.UserID))
	}
	return data, nil
}

func (s *userService) RefreshSessionUser(ctx context.Context, token string, profile *dto.UserProfileDTO) error {
	if token == "" || profile == nil {
		return nil
	}
	return s.kv.GetSession().UpdateSession(ctx, token, &redis.SessionData{
		UserID:   profile.ID,
		Username: profile.Username,
	})
}

// ============================================================================
// 查询
// ============================================================================

func (s *userService) ListUsers(ctx context.Context) ([]*dto.UserProfileDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		log.Error("查询用户列表失败", zap.Error(err))
		return nil, fmt.Errorf("查询用户列表失败: %w", err)
	}
	return dto.ToProfiles(users), nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*dto.UserProfileDTO, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error("获取用户信息失败", zap.Error(err), zap.Uint64("user_id", userID))
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	return dto.ToProfile(user), nil
}

// ============================================================================
// 更新 / 删除
// ============================================================================

func (s *userService) UpdateUser(ctx context.Context, updateDTO *dto.UpdateUserDTO) (*dto.UserProfileDTO, error) {
	// 1. 规范化并验证DTO
	updateDTO.Normalize()
	if err := updateDTO.Validate(); err != nil {
		return nil, err
	}

	// 2. 预检查新用户名、邮箱是否被他人占用
	if err := s.checkAvailable(ctx, updateDTO.UserID, updateDTO.Username, updateDTO.Email); err != nil {
		return nil, err
	}

	// 3. 组装更新字段
	fields := make(map[string]any, 3)
	if updateDTO.Username != nil {
		fields["username"] = *updateDTO.Username
	}
	if updateDTO.Email != nil {
		fields["email"] = *updateDTO.Email
	}
	if updateDTO.Password != nil {
		hash, err := s.hashPassword(*updateDTO.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}

	// 4. 写入数据库
	if err := s.userRepo.Update(ctx, updateDTO.UserID, fields); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateUser):
			return nil, ErrUserExists
		}
		log.Error("更新用户失败", zap.Error(err), zap.Uint64("user_id", updateDTO.UserID))
		return nil, fmt.Errorf("更新用户失败: %w", err)
	}

	log.Info("更新用户成功", zap.Uint64("user_id", updateDTO.UserID), zap.Int("fields", len(fields)))
	return s.GetProfile(ctx, updateDTO.UserID)
}

func (s *userService) DeleteUser(ctx context.Context, userID uint64, token string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		log.Error("删除用户失败", zap.Error(err), zap.Uint64("user_id", userID))
		return fmt.Errorf("删除用户失败: %w", err)
	}

	if err := s.Logout(ctx, token); err != nil {
		log.Warn("删除用户后销毁Session失败", zap.Error(err), zap.Uint64("user_id", userID))
	}

	log.Info("删除用户成功", zap.Uint64("user_id", userID))
	return nil
}

// ============================================================================
// 内部方法
// ============================================================================

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		log.Error("密码哈希失败", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPasswordHashFailed, err)
	}
	return string(hash), nil
}

// checkAvailable 检查用户名、邮箱未被 selfID 以外的用户占用，nil 表示不检查
func (s *userService) checkAvailable(ctx context.Context, selfID uint64, username, email *string) error {
	if email != nil {
		existing, err := s.userRepo.GetByEmail(ctx, *email)
		switch {
		case err == nil && existing.ID != selfID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return fmt.Errorf("查询邮箱失败: %w", err)
		}
	}
	if username != nil {
		existing, err := s.userRepo.GetByUsername(ctx, *username)
		switch {
		case err == nil && existing.ID != selfID:
			return ErrUsernameTaken
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return fmt.Errorf("查询用户名失败: %w", err)
		}
	}
	return nil
}
