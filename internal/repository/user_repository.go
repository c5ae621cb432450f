package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nemesix/internal/model"
	"nemesix/pkg/db"
	log "nemesix/pkg/logger"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser 用户名或邮箱已存在
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidField 不允许更新的字段
	ErrInvalidField = errors.New("invalid update field")

	// ErrNoFields 更新字段为空
	ErrNoFields = errors.New("no fields to update")
)

// 允许动态更新的列
var updatableColumns = map[string]struct{}{
	"username": {},
	"email":    {},
	"password": {},
}

const userColumns = `id, username, email, password, created_at, updated_at`

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户，返回自增ID
	Create(ctx context.Context, user *model.User) (uint64, error)

	// GetByEmail 根据邮箱查询用户（用于登录）
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByUsername 根据用户名查询用户
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// GetByID 根据ID查询用户
	GetByID(ctx context.Context, id uint64) (*model.User, error)

	// List 查询全部用户，按创建时间倒序
	List(ctx context.Context) ([]*model.User, error)

	// Update 动态更新字段，updated_at 自动刷新
	Update(ctx context.Context, id uint64, fields map[string]any) error

	// Delete 删除用户
	Delete(ctx context.Context, id uint64) error

	// Count 用户总数
	Count(ctx context.Context) (int64, error)

	// BatchCreate 批量创建用户（用于生成测试数据）
	BatchCreate(ctx context.Context, users []*model.User) error
}

type userRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db, now: time.Now}
}

func (r *userRepository) isPostgres() bool {
	return r.db.DriverName() == "postgres"
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (uint64, error) {
	now := r.now()
	query := r.db.Rebind(`INSERT INTO users (username, email, password, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)`)
	log.Debug("执行SQL", zap.String("query", query), zap.String("username", user.Username), zap.String("email", user.Email))

	var id uint64
	if r.isPostgres() {
		err := r.db.QueryRowxContext(ctx, query+" RETURNING id",
			user.Username, user.Email, user.Password, now, now).Scan(&id)
		if err != nil {
			return 0, wrapWriteErr("failed to create user", err)
		}
	} else {
		result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.Password, now, now)
		if err != nil {
			return 0, wrapWriteErr("failed to create user", err)
		}
		lastID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get last insert id: %w", err)
		}
		id = uint64(lastID)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return id, nil
}

func (r *userRepository) getOne(ctx context.Context, column string, arg any) (*model.User, error) {
	var user model.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	log.Debug("执行SQL", zap.String("query", query), zap.Any("arg", arg))

	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s=%v", ErrUserNotFound, column, arg)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "username", username)
}

func (r *userRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0)
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	log.Debug("执行SQL", zap.String("query", query))

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return ErrNoFields
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidField, col)
		}
		columns = append(columns, col)
	}
	// 列排序保证生成的SQL稳定
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+2)
	for _, col := range columns {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), id)

	query := r.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	log.Debug("执行SQL", zap.String("query", query), zap.Strings("columns", columns), zap.Uint64("id", id))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapWriteErr("failed to update user", err)
	}
	return checkAffected(result, id)
}

func (r *userRepository) Delete(ctx context.Context, id uint64) error {
	query := r.db.Rebind(`DELETE FROM users WHERE id = ?`)
	log.Debug("执行SQL", zap.String("query", query), zap.Uint64("id", id))

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result, id)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// BatchCreate 在一个事务中批量插入，任一失败全部回滚
func (r *userRepository) BatchCreate(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// 提交成功后回滚返回 sql.ErrTxDone，忽略
		_ = tx.Rollback()
	}()

	query := tx.Rebind(`INSERT INTO users (username, email, password, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)`)
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := r.now()
	for _, user := range users {
		if _, err := stmt.ExecContext(ctx, user.Username, user.Email, user.Password, now, now); err != nil {
			return wrapWriteErr(fmt.Sprintf("failed to insert user %s", user.Username), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func wrapWriteErr(msg string, err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", msg, ErrDuplicateUser)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func checkAffected(result sql.Result, id uint64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrUserNotFound, id)
	}
	return nil
}
