package dto

// ============================================================================
// 注册 / 登录相关 DTO
// ============================================================================

// RegisterDTO 注册请求
type RegisterDTO struct {
	Username string
	Email    string
	Password string // 明文密码
}

// LoginDTO 登录请求（使用邮箱登录）
type LoginDTO struct {
	Email    string
	Password string // 明文密码
}

// LoginResultDTO 登录结果
type LoginResultDTO struct {
	Token   string
	Profile *UserProfileDTO
}

// Normalize 去除首尾空白，密码保持原样
func (d *RegisterDTO) Normalize() {
	d.Username = trim(d.Username)
	d.Email = trim(d.Email)
}

// Normalize 去除首尾空白，密码保持原样
func (d *LoginDTO) Normalize() {
	d.Email = trim(d.Email)
}
