package dto

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	PasswordMinLen = 8
	PasswordMaxLen = 72 // bcrypt 只处理前72字节
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.+_-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]+$`)

// ============================================================================
// 验证错误
// ============================================================================

var (
	ErrUsernameTooShort = errors.New("用户名至少需要3个字符")
	ErrUsernameTooLong  = errors.New("用户名不能超过50个字符")
	ErrEmailEmpty       = errors.New("邮箱不能为空")
	ErrEmailInvalid     = errors.New("请输入有效的邮箱地址")
	ErrPasswordEmpty    = errors.New("密码不能为空")
	ErrPasswordTooShort = errors.New("密码至少需要8个字符")
	ErrPasswordTooLong  = errors.New("密码不能超过72个字节")
	ErrNothingToUpdate  = errors.New("没有需要更新的字段")
	ErrUserIDInvalid    = errors.New("用户ID无效")
)

// ValidationError 汇总所有校验失败项
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := e.Messages()
	return "参数校验失败: " + strings.Join(msgs, "; ")
}

// Messages 每条失败项的提示文案
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// Is 支持 errors.Is 匹配单个失败项
func (e *ValidationError) Is(target error) bool {
	for _, err := range e.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ============================================================================
// 字段规则
// ============================================================================

// ValidateUsername 按字符数计算，支持中文
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLen {
		return ErrUsernameTooShort
	}
	if n > UsernameMaxLen {
		return ErrUsernameTooLong
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailEmpty
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword 上限按字节计算
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLen {
		return ErrPasswordTooShort
	}
	if len(password) > PasswordMaxLen {
		return ErrPasswordTooLong
	}
	return nil
}

// ============================================================================
// DTO 验证
// ============================================================================

// Validate 验证注册DTO，返回全部失败项
func (d *RegisterDTO) Validate() error {
	v := &ValidationError{}
	v.add(ValidateUsername(d.Username))
	v.add(ValidateEmail(d.Email))
	v.add(ValidatePassword(d.Password))
	return v.orNil()
}

// Validate 验证登录DTO
func (d *LoginDTO) Validate() error {
	v := &ValidationError{}
	if d.Email == "" {
		v.add(ErrEmailEmpty)
	}
	if d.Password == "" {
		v.add(ErrPasswordEmpty)
	}
	return v.orNil()
}

// Validate 验证更新DTO，只校验出现的字段
func (d *UpdateUserDTO) Validate() error {
	v := &ValidationError{}
	if d.UserID == 0 {
		v.add(ErrUserIDInvalid)
	}
	if d.IsEmpty() {
		v.add(ErrNothingToUpdate)
	}
	if d.Username != nil {
		v.add(ValidateUsername(*d.Username))
	}
	if d.Email != nil {
		v.add(ValidateEmail(*d.Email))
	}
	if d.Password != nil {
		v.add(ValidatePassword(*d.Password))
	}
	return v.orNil()
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
