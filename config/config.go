package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 全局配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Security  SecurityConfig  `yaml:"security"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig HTTP Server 配置
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Mode            string `yaml:"mode"`             // gin 模式: debug, release, test
	ReadTimeout     int    `yaml:"read_timeout"`     // 秒
	WriteTimeout    int    `yaml:"write_timeout"`    // 秒
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // 秒
	// TrustedProxies 可信反向代理（IP 或 CIDR），为空时忽略 X-Forwarded-For
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// GetHTTPAddr 获取 HTTP Server 地址
func (s *ServerConfig) GetHTTPAddr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// GetReadTimeout 获取读超时时间
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout 获取写超时时间
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout 获取优雅关闭超时时间
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // 数据库驱动: sqlite, mysql, postgres
	Path            string `yaml:"path"`   // sqlite 文件路径
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	ParseTime       bool   `yaml:"parse_time"`
	Loc             string `yaml:"loc"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 秒
}

// GetDSN 获取数据库连接字符串
func (d *DatabaseConfig) GetDSN() string {
	switch d.Driver {
	case "mysql":
		// clientFoundRows: UPDATE 返回匹配行数而非实际变更行数
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s&clientFoundRows=true",
			d.Username,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
			d.Charset,
			d.ParseTime,
			d.Loc,
		)
	case "postgres", "pgsql":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host,
			d.Port,
			d.Username,
			d.Password,
			d.Database,
			d.SSLMode,
		)
	default:
		return "file:" + d.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	}
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
	MaxRetries   int    `yaml:"max_retries"`
	DialTimeout  int    `yaml:"dial_timeout"`  // 秒
	ReadTimeout  int    `yaml:"read_timeout"`  // 秒
	WriteTimeout int    `yaml:"write_timeout"` // 秒
}

// GetAddr 获取Redis地址
func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetDialTimeout 获取连接超时时间
func (r *RedisConfig) GetDialTimeout() time.Duration {
	return time.Duration(r.DialTimeout) * time.Second
}

// GetReadTimeout 获取读超时时间
func (r *RedisConfig) GetReadTimeout() time.Duration {
	return time.Duration(r.ReadTimeout) * time.Second
}

// GetWriteTimeout 获取写超时时间
func (r *RedisConfig) GetWriteTimeout() time.Duration {
	return time.Duration(r.WriteTimeout) * time.Second
}

// SessionConfig Session配置
type SessionConfig struct {
	Store      string `yaml:"store"` // redis, memory
	CookieName string `yaml:"cookie_name"`
	TTL        int    `yaml:"ttl"` // 分钟
	Secure     bool   `yaml:"secure"`
}

// GetTTL 获取Session有效期
func (s *SessionConfig) GetTTL() time.Duration {
	return time.Duration(s.TTL) * time.Minute
}

// SecurityConfig 认证安全配置
type SecurityConfig struct {
	BcryptCost        int `yaml:"bcrypt_cost"`
	MaxLoginFailures  int `yaml:"max_login_failures"`
	LoginFailWindow   int `yaml:"login_fail_window"`   // 分钟
	RequestsPerMinute int `yaml:"requests_per_minute"` // 登录/注册接口每个IP每分钟请求数
	Burst             int `yaml:"burst"`
}

// GetLoginFailWindow 获取登录失败计数窗口
func (s *SecurityConfig) GetLoginFailWindow() time.Duration {
	return time.Duration(s.LoginFailWindow) * time.Minute
}

// GRPCConfig gRPC 健康检查服务配置
type GRPCConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	HealthInterval int    `yaml:"health_interval"` // 秒
}

// GetAddr 获取 gRPC Server 地址
func (g *GRPCConfig) GetAddr() string {
	return g.Host + ":" + strconv.Itoa(g.Port)
}

// GetHealthInterval 获取健康检查间隔
func (g *GRPCConfig) GetHealthInterval() time.Duration {
	return time.Duration(g.HealthInterval) * time.Second
}

// SnowflakeConfig 雪花ID配置
type SnowflakeConfig struct {
	MachineID int64 `yaml:"machine_id"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `yaml:"level"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

var globalConfig *Config

// Load 加载配置文件
// 优先级：环境变量（含 .env）> YAML 文件 > 默认值
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &config
	return &config, nil
}

// loadDotEnv 加载 .env 文件，文件不存在时忽略
// godotenv 不会覆盖已存在的环境变量
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("加载 %s 失败: %w", path, err)
	}
	return nil
}

// applyEnv 使用环境变量覆盖配置
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("环境变量 %s 不是合法整数: %q", key, v)
		}
		*dst = n
		return nil
	}

	setString("APP_HOST", &c.Server.Host)
	setString("APP_MODE", &c.Server.Mode)
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_PATH", &c.Database.Path)
	setString("SESSION_STORE", &c.Session.Store)
	setString("REDIS_HOST", &c.Redis.Host)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setString("LOG_LEVEL", &c.Log.Level)

	if err := setInt("APP_PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := setInt("REDIS_PORT", &c.Redis.Port); err != nil {
		return err
	}
	return nil
}

// applyDefaults 填充未配置项的默认值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30
	}

	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "database/nemesix_db.db"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.Loc == "" {
		c.Database.Loc = "Local"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Redis.Host == "" {
		c.Redis.Host = "127.0.0.1"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3
	}

	c.Session.Store = strings.ToLower(c.Session.Store)
	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "session_id"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 120
	}

	if c.Security.BcryptCost == 0 {
		c.Security.BcryptCost = 10
	}
	if c.Security.MaxLoginFailures == 0 {
		c.Security.MaxLoginFailures = 5
	}
	if c.Security.LoginFailWindow == 0 {
		c.Security.LoginFailWindow = 15
	}
	if c.Security.RequestsPerMinute == 0 {
		c.Security.RequestsPerMinute = 20
	}
	if c.Security.Burst == 0 {
		c.Security.Burst = 10
	}

	if c.GRPC.Host == "" {
		c.GRPC.Host = "0.0.0.0"
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9090
	}
	if c.GRPC.HealthInterval == 0 {
		c.GRPC.HealthInterval = 10
	}

	if c.Snowflake.MachineID == 0 {
		c.Snowflake.MachineID = 1
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("不支持的 server.mode: %s", c.Server.Mode)
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies 非法地址: %s", p)
			}
		}
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres", "pgsql":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	switch c.Session.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("不支持的 session.store: %s", c.Session.Store)
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost 必须在 4-31 之间: %d", c.Security.BcryptCost)
	}
	if c.Snowflake.MachineID < 0 || c.Snowflake.MachineID > 1023 {
		return fmt.Errorf("snowflake.machine_id 必须在 0-1023 之间: %d", c.Snowflake.MachineID)
	}
	return nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}

// GetDatabase 获取数据库配置
func GetDatabase() *DatabaseConfig {
	return &Get().Database
}

// GetRedis 获取Redis配置
func GetRedis() *RedisConfig {
	return &Get().Redis
}

// GetSession 获取Session配置
func GetSession() *SessionConfig {
	return &Get().Session
}
