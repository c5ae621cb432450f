package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nemesix/internal/migrations"
	log "nemesix/pkg/logger"
)

// Migrate 执行内嵌的建表迁移，已是最新版本时视为成功
func Migrate(db *sqlx.DB, driver string) error {
	driverName, err := DriverName(driver)
	if err != nil {
		return err
	}

	var target database.Driver
	switch driverName {
	case "mysql":
		target, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	case "postgres":
		target, err = migratepg.WithInstance(db.DB, &migratepg.Config{})
	default:
		target, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	source, err := iofs.New(migrations.FS, driverName)
	if err != nil {
		return fmt.Errorf("读取迁移文件失败: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", source, driverName, target)
	if err != nil {
		return fmt.Errorf("创建迁移实例失败: %w", err)
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := instance.Version()
	log.Info("数据库迁移完成", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
