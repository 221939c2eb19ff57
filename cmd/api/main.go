package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stitchhire/candidate-directory/backend/internal/auth"
	"github.com/stitchhire/candidate-directory/backend/internal/config"
	"github.com/stitchhire/candidate-directory/backend/internal/credential"
	"github.com/stitchhire/candidate-directory/backend/internal/directory"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/enrich"
	"github.com/stitchhire/candidate-directory/backend/internal/geocode"
	"github.com/stitchhire/candidate-directory/backend/internal/handler"
	"github.com/stitchhire/candidate-directory/backend/internal/notify"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
)

func main() {
	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法加载配置文件", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	/**********************************************
	 * 连接各个 tenant 的数据库
	 **********************************************/
	stores := make([]repository.TenantStore, 0, len(domain.TenantOrder))
	for _, tenant := range domain.TenantOrder {
		dbpool, err := repository.OpenPool(cfg, repository.DSNFor(cfg, tenant))
		if err != nil {
			logger.Error("无法连接到数据库", "tenant", tenant, "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()

		stores = append(stores, repository.NewRepository(cfg, repository.SchemaFor(tenant), dbpool))
	}

	/**********************************************
	 * 创建地理编码客户端
	 **********************************************/
	var cache geocode.Cache
	cacheTTL := time.Duration(cfg.Geocode.CacheTTL) * time.Second
	switch cfg.Geocode.Cache {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		cache = geocode.NewRedisCache(rdb, cacheTTL)
	case "none":
		cache = geocode.NoopCache{}
	default:
		cache = geocode.NewMemoryCache(cfg.Geocode.CacheSize, cacheTTL)
	}

	geocoder := geocode.NewClient(
		cfg.Geocode.BaseURL,
		time.Duration(cfg.Geocode.Timeout)*time.Millisecond,
		geocode.WithCache(cache),
	)
	pipeline := enrich.NewPipeline(geocoder, enrich.Config{
		CallTimeout:  time.Duration(cfg.Geocode.Timeout) * time.Millisecond,
		BatchTimeout: time.Duration(cfg.Geocode.BatchTimeout) * time.Millisecond,
		Concurrency:  cfg.Geocode.Concurrency,
	})

	/**********************************************
	 * 连接 rabbitmq，未配置时不发送通知邮件
	 **********************************************/
	var notifier auth.Notifier
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("无法连接到 rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("无法建立通道", "error", err)
			os.Exit(1)
		}
		defer ch.Close()

		if _, err := ch.QueueDeclare(cfg.RabbitMQ.Queue, true, false, false, false, nil); err != nil {
			logger.Error("无法声明队列", "error", err)
			os.Exit(1)
		}

		notifier = notify.NewPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	} else {
		logger.Warn("未配置 rabbitmq，密码修改通知将不会发送")
	}

	/**********************************************
	 * 创建凭据校验与解析器
	 **********************************************/
	hasher, err := credential.NewPasswordHasher(cfg.Password.BcryptCost)
	if err != nil {
		logger.Error("无法创建密码哈希器", "error", err)
		os.Exit(1)
	}
	tokens, err := credential.NewSignedTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		logger.Error("无法创建 token 校验器", "error", err)
		os.Exit(1)
	}
	resolver, err := auth.NewResolver(stores, hasher, tokens, auth.Options{
		TokenTTL: time.Duration(cfg.JWT.Expiration) * time.Second,
		Notifier: notifier,
	})
	if err != nil {
		logger.Error("无法创建登录解析器", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, resolver, directory.NewService(stores, pipeline))
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		os.Exit(1)
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
