package dto

import "time"

// ============================================================================
// 用户信息 DTO
// ============================================================================

// UserProfileDTO 用户公开信息（不含密码哈希）
type UserProfileDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ============================================================================
// 操作 DTO
// ============================================================================

// UpdateUserDTO 更新用户信息，nil 字段表示不修改
type UpdateUserDTO struct {
	UserID   uint64
	Username *string
	Email    *string
	Password *string // 明文密码
}

// Normalize 去除首尾空白，空字符串视为不修改
func (d *UpdateUserDTO) Normalize() {
	d.Username = trimOptional(d.Username)
	d.Email = trimOptional(d.Email)
	if d.Password != nil && *d.Password == "" {
		d.Password = nil
	}
}

// IsEmpty 没有任何需要修改的字段
func (d *UpdateUserDTO) IsEmpty() bool {
	return d.Username == nil && d.Email == nil && d.Password == nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := trim(*s)
	if v == "" {
		return nil
	}
	return &v
}
