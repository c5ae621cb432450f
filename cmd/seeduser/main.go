package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nemesix/config"
	"nemesix/internal/dto"
	"nemesix/internal/model"
	"nemesix/internal/repository"
	"nemesix/internal/service"
	"nemesix/pkg/container"
	"nemesix/pkg/logger"
)

var (
	configPath = flag.String("config", "config/config.yaml", "配置文件路径")
	username   = flag.String("username", "testuser", "用户名")
	email      = flag.String("email", "testuser@example.com", "邮箱")
	password   = flag.String("password", "password123", "密码")
	demo       = flag.Int("demo", 0, "批量生成的演示用户数量，大于 0 时忽略 username/email")
	batchSize  = flag.Int("batch", 500, "批量插入每批条数")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}

	// 2. 初始化日志
	logConfig := &logger.Config{
		Level:    cfg.Log.Level,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}
	if err := logger.Init(logConfig); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	defer logger.Sync()

	// 3. 初始化依赖注入容器
	if err := container.Init(); err != nil {
		logger.Fatal("初始化容器失败", zap.Error(err))
	}

	// 4. 注册配置到容器
	if err := container.Container.Provide(func() *config.Config {
		return cfg
	}); err != nil {
		logger.Fatal("注册配置失败", zap.Error(err))
	}

	ctx := context.Background()

	if *demo > 0 {
		var userRepo repository.UserRepository
		if err := container.Invoke(func(repo repository.UserRepository) {
			userRepo = repo
		}); err != nil {
			logger.Fatal("获取 UserRepository 失败", zap.Error(err))
		}
		seedDemo(ctx, userRepo, cfg.Security.BcryptCost)
		return
	}

	// 5. 通过 Service 注册，与网页注册走同一套校验
	var userService service.UserService
	if err := container.Invoke(func(svc service.UserService) {
		userService = svc
	}); err != nil {
		logger.Fatal("获取 UserService 失败", zap.Error(err))
	}

	profile, err := userService.Register(ctx, &dto.RegisterDTO{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		logger.Fatal("创建用户失败", zap.Error(err))
	}

	logger.Info("测试用户创建成功",
		zap.Uint64("user_id", profile.ID),
		zap.String("username", profile.Username),
		zap.String("email", profile.Email),
	)

	fmt.Println("\n=========================================")
	fmt.Printf("测试账号创建成功！\n")
	fmt.Println("=========================================")
	fmt.Printf("用户名:  %s\n", profile.Username)
	fmt.Printf("邮箱:    %s\n", profile.Email)
	fmt.Printf("密码:    %s\n", *password)
	fmt.Printf("用户ID:  %d\n", profile.ID)
	fmt.Println("=========================================")
}

// seedDemo 批量插入演示用户，所有用户共用同一个密码哈希
func seedDemo(ctx context.Context, repo repository.UserRepository, cost int) {
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cost)
	if err != nil {
		logger.Fatal("加密密码失败", zap.Error(err))
	}

	start := time.Now()
	suffix := start.Unix()
	batch := make([]*model.User, 0, *batchSize)
	inserted := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := repo.BatchCreate(ctx, batch); err != nil {
			logger.Fatal("批量创建用户失败", zap.Int("inserted", inserted), zap.Error(err))
		}
		inserted += len(batch)
		logger.Info("批量插入进度", zap.Int("inserted", inserted), zap.Int("total", *demo))
		batch = batch[:0]
	}

	for i := 1; i <= *demo; i++ {
		name := fmt.Sprintf("demo_%d_%d", suffix, i)
		batch = append(batch, &model.User{
			Username: name,
			Email:    name + "@example.com",
			Password: string(hash),
		})
		if len(batch) == *batchSize {
			flush()
		}
	}
	flush()

	logger.Info("演示用户生成完成",
		zap.Int("total", inserted),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Printf("已生成 %d 个演示用户，统一密码: %s\n", inserted, *password)
}
