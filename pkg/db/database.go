package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL 驱动
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL 驱动
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite 驱动（纯 Go）

	"nemesix/config"
	log "nemesix/pkg/logger"
)

// DriverName 将配置中的驱动名映射为 database/sql 注册名
func DriverName(driver string) (string, error) {
	switch driver {
	case "sqlite", "":
		return "sqlite", nil
	case "mysql":
		return "mysql", nil
	case "postgres", "pgsql":
		return "postgres", nil
	default:
		return "", fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
}

// InitDB 初始化数据库连接（使用 sqlx），并执行建表迁移
func InitDB(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	log.Info("开始初始化数据库连接",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.String("path", cfg.Path),
		zap.String("database", cfg.Database),
	)

	driverName, err := DriverName(cfg.Driver)
	if err != nil {
		log.Error("不支持的数据库驱动", zap.String("driver", cfg.Driver))
		return nil, err
	}

	if driverName == "sqlite" {
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(driverName, cfg.GetDSN())
	if err != nil {
		log.Error("连接数据库失败", zap.Error(err), zap.String("driver", cfg.Driver))
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	log.Debug("配置数据库连接池",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("conn_max_lifetime", cfg.ConnMaxLifetime),
	)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Error("数据库连接测试失败", zap.Error(err))
		_ = db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	if err := Migrate(db, cfg.Driver); err != nil {
		log.Error("数据库迁移失败", zap.Error(err))
		_ = db.Close()
		return nil, err
	}

	log.Info("数据库连接成功",
		zap.String("driver", cfg.Driver),
		zap.String("database", cfg.Database),
	)
	return db, nil
}

// ensureDir 创建 sqlite 文件所在目录
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建数据库目录失败: %w", err)
	}
	return nil
}
