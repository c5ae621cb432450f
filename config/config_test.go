package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig 在临时目录写入配置文件
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	return path
}

// TestLoad 测试加载仓库自带的配置文件
func TestLoad(t *testing.T) {
	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port 期望 8080, 实际 %d", cfg.Server.Port)
	}
	if cfg.Server.Mode != "debug" {
		t.Errorf("Server.Mode 期望 'debug', 实际 '%s'", cfg.Server.Mode)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver 期望 'sqlite', 实际 '%s'", cfg.Database.Driver)
	}
	if cfg.Database.Path != "database/nemesix_db.db" {
		t.Errorf("Database.Path 期望 'database/nemesix_db.db', 实际 '%s'", cfg.Database.Path)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store 期望 'memory', 实际 '%s'", cfg.Session.Store)
	}
	if cfg.Security.MaxLoginFailures != 5 {
		t.Errorf("Security.MaxLoginFailures 期望 5, 实际 %d", cfg.Security.MaxLoginFailures)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level 期望 'info', 实际 '%s'", cfg.Log.Level)
	}
}

// TestLoadDefaults 测试最小配置时的默认值
func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  mode: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.GetHTTPAddr() != "0.0.0.0:8080" {
		t.Errorf("默认地址不正确: %s", cfg.Server.GetHTTPAddr())
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("默认驱动不正确: %s", cfg.Database.Driver)
	}
	if cfg.Session.CookieName != "session_id" {
		t.Errorf("默认 Cookie 名不正确: %s", cfg.Session.CookieName)
	}
	if cfg.Session.GetTTL() != 2*time.Hour {
		t.Errorf("默认 Session TTL 不正确: %v", cfg.Session.GetTTL())
	}
	if cfg.Security.GetLoginFailWindow() != 15*time.Minute {
		t.Errorf("默认登录失败窗口不正确: %v", cfg.Security.GetLoginFailWindow())
	}
	if cfg.Server.GetShutdownTimeout() != 30*time.Second {
		t.Errorf("默认关闭超时不正确: %v", cfg.Server.GetShutdownTimeout())
	}
}

// TestLoadEnvOverride 测试环境变量覆盖
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, "server:\n  port: 8080\n  mode: release\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port 期望 9000, 实际 %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("Database.Path 期望 '/tmp/other.db', 实际 '%s'", cfg.Database.Path)
	}
	if cfg.Session.Store != "redis" {
		t.Errorf("Session.Store 期望 'redis', 实际 '%s'", cfg.Session.Store)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level 期望 'debug', 实际 '%s'", cfg.Log.Level)
	}
}

// TestLoadInvalidEnv 测试非法的整数环境变量
func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("APP_PORT", "abc")

	if _, err := Load(writeConfig(t, "server:\n  mode: test\n")); err == nil {
		t.Error("期望返回错误，但没有返回")
	}
}

// TestLoadFileNotExist 测试加载不存在的配置文件
func TestLoadFileNotExist(t *testing.T) {
	if _, err := Load("not_exist.yaml"); err == nil {
		t.Error("期望返回错误，但没有返回")
	}
}

// TestLoadInvalidYAML 测试加载无效的YAML文件
func TestLoadInvalidYAML(t *testing.T) {
	invalidYAML := `
server:
  host: "localhost"
  port: invalid_port
`
	if _, err := Load(writeConfig(t, invalidYAML)); err == nil {
		t.Error("期望返回错误，但没有返回")
	}
}

// TestValidate 测试配置校验
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"非法驱动", "server:\n  mode: test\ndatabase:\n  driver: oracle\n"},
		{"非法模式", "server:\n  mode: prod\n"},
		{"非法会话存储", "server:\n  mode: test\nsession:\n  store: file\n"},
		{"非法端口", "server:\n  mode: test\n  port: 70000\n"},
		{"非法 bcrypt cost", "server:\n  mode: test\nsecurity:\n  bcrypt_cost: 40\n"},
		{"非法可信代理", "server:\n  mode: test\n  trusted_proxies: [\"10.0.0.0/33\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("期望返回错误，但没有返回")
			}
		})
	}
}

func TestTrustedProxies(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  mode: test\n  trusted_proxies: [\"10.0.0.1\", \"192.168.0.0/16\"]\n"))
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "192.168.0.0/16" {
		t.Errorf("trusted_proxies 解析错误: %v", cfg.Server.TrustedProxies)
	}
}

// TestDatabaseGetDSN 测试获取数据库DSN
func TestDatabaseGetDSN(t *testing.T) {
	mysqlCfg := DatabaseConfig{
		Driver:    "mysql",
		Host:      "127.0.0.1",
		Port:      3306,
		Username:  "root",
		Password:  "root",
		Database:  "nemesix_db",
		Charset:   "utf8mb4",
		ParseTime: true,
		Loc:       "Local",
	}
	expected := "root:root@tcp(127.0.0.1:3306)/nemesix_db?charset=utf8mb4&parseTime=true&loc=Local&clientFoundRows=true"
	if got := mysqlCfg.GetDSN(); got != expected {
		t.Errorf("DSN不匹配\n期望: %s\n实际: %s", expected, got)
	}

	pgCfg := DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     5432,
		Username: "app",
		Password: "secret",
		Database: "nemesix_db",
		SSLMode:  "disable",
	}
	expected = "host=db port=5432 user=app password=secret dbname=nemesix_db sslmode=disable"
	if got := pgCfg.GetDSN(); got != expected {
		t.Errorf("DSN不匹配\n期望: %s\n实际: %s", expected, got)
	}

	sqliteCfg := DatabaseConfig{Driver: "sqlite", Path: "data/app.db"}
	expected = "file:data/app.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	if got := sqliteCfg.GetDSN(); got != expected {
		t.Errorf("DSN不匹配\n期望: %s\n实际: %s", expected, got)
	}
}

// TestRedisGetTimeouts 测试获取Redis超时配置
func TestRedisGetTimeouts(t *testing.T) {
	redisConfig := RedisConfig{Host: "10.0.0.2", Port: 6380, DialTimeout: 5, ReadTimeout: 3, WriteTimeout: 2}

	if redisConfig.GetAddr() != "10.0.0.2:6380" {
		t.Errorf("Redis地址不匹配: %s", redisConfig.GetAddr())
	}
	if redisConfig.GetDialTimeout() != 5*time.Second {
		t.Errorf("DialTimeout 期望 5s, 实际 %v", redisConfig.GetDialTimeout())
	}
	if redisConfig.GetReadTimeout() != 3*time.Second {
		t.Errorf("ReadTimeout 期望 3s, 实际 %v", redisConfig.GetReadTimeout())
	}
	if redisConfig.GetWriteTimeout() != 2*time.Second {
		t.Errorf("WriteTimeout 期望 2s, 实际 %v", redisConfig.GetWriteTimeout())
	}
}

// TestGetGlobalConfig 测试未初始化时获取配置应该panic
func TestGetGlobalConfig(t *testing.T) {
	globalConfig = nil

	defer func() {
		if r := recover(); r == nil {
			t.Error("期望panic，但没有发生")
		}
	}()

	Get()
}

// TestGetHelpers 测试配置辅助函数
func TestGetHelpers(t *testing.T) {
	if _, err := Load("config.yaml"); err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if GetDatabase().Database != "nemesix_db" {
		t.Errorf("GetDatabase 返回的数据库名不正确: %s", GetDatabase().Database)
	}
	if GetRedis().Port != 6379 {
		t.Errorf("GetRedis 返回的端口不正确: %d", GetRedis().Port)
	}
	if GetSession().CookieName != "session_id" {
		t.Errorf("GetSession 返回的 Cookie 名不正确: %s", GetSession().CookieName)
	}
}
