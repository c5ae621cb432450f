package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemesix/config"
	"nemesix/internal/model"
	"nemesix/pkg/db"
	"nemesix/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(&logger.Config{Level: "fatal", Output: "stdout"}); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	m.Run()
}

// newTestDB 在临时目录创建 sqlite 数据库并完成迁移
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newUser(name string) *model.User {
	return &model.User{Username: name, Email: name + "@example.com", Password: "hash-" + name}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	user := newUser("alice")
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, user.ID)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "hash-alice", byID.Password)
	assert.False(t, byID.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)

	dupName := newUser("alice")
	dupName.Email = "other@example.com"
	_, err = repo.Create(ctx, dupName)
	assert.ErrorIs(t, err, ErrDuplicateUser)

	dupEmail := newUser("bob")
	dupEmail.Email = "alice@example.com"
	_, err = repo.Create(ctx, dupEmail)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t)).(*userRepository)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return at }
		_, err := repo.Create(ctx, newUser(name))
		require.NoError(t, err)
	}
	// 相同创建时间按 id 倒序
	_, err := repo.Create(ctx, newUser("fourth"))
	require.NoError(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"fourth", "third", "second", "first"}, names)
}

func TestUserRepository_ListEmpty(t *testing.T) {
	users, err := NewUserRepository(newTestDB(t)).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t)).(*userRepository)

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }
	id, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)

	updated := created.Add(time.Hour)
	repo.now = func() time.Time { return updated }
	err = repo.Update(ctx, id, map[string]any{"username": "alice2", "email": "new@example.com"})
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "new@example.com", user.Email)
	assert.True(t, user.UpdatedAt.Equal(updated))
	assert.True(t, user.CreatedAt.Equal(created))
}

func TestUserRepository_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	id, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("bob"))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Update(ctx, id, map[string]any{"id": 99}), ErrInvalidField)
	assert.ErrorIs(t, repo.Update(ctx, id, map[string]any{"created_at": "x"}), ErrInvalidField)
	assert.ErrorIs(t, repo.Update(ctx, id, nil), ErrNoFields)
	assert.ErrorIs(t, repo.Update(ctx, 999, map[string]any{"username": "ghost"}), ErrUserNotFound)
	assert.ErrorIs(t, repo.Update(ctx, id, map[string]any{"username": "bob"}), ErrDuplicateUser)
}

func TestUserRepository_DeleteAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	id, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("bob"))
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrUserNotFound)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_BatchCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.BatchCreate(ctx, nil))
	require.NoError(t, repo.BatchCreate(ctx, []*model.User{newUser("a1"), newUser("a2"), newUser("a3")}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// 批次内冲突整体回滚
	err = repo.BatchCreate(ctx, []*model.User{newUser("b1"), newUser("a1")})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

// ============================================================================
// 驱动错误路径（sqlmock）
// ============================================================================

func newMockRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewUserRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestUserRepository_DriverErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("Count", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)

		_, err := repo.Count(ctx)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT .* FROM users WHERE id = ?").WillReturnError(boom)

		_, err := repo.GetByID(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("List", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT .* FROM users ORDER BY").WillReturnError(boom)

		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CreateLastInsertID", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewErrorResult(boom))

		_, err := repo.Create(ctx, newUser("alice"))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("DeleteRowsAffected", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("DELETE FROM users").
			WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewErrorResult(boom))

		err := repo.Delete(ctx, 7)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("UpdateSortedColumns", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET email = \?, username = \?, updated_at = \? WHERE id = \?`).
			WithArgs("e@x.io", "neo", sqlmock.AnyArg(), uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(ctx, 3, map[string]any{"username": "neo", "email": "e@x.io"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BatchCreateBeginFailed", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin().WillReturnError(boom)

		err := repo.BatchCreate(ctx, []*model.User{newUser("a")})
		assert.ErrorIs(t, err, boom)
	})
}
