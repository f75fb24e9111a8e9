package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"Lee_Gateway/internal/api"
	"Lee_Gateway/internal/auth"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/config"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/guard"
	"Lee_Gateway/internal/pkg"
	"Lee_Gateway/internal/repository/mysql"
	"Lee_Gateway/internal/repository/redis"
	"Lee_Gateway/internal/router"
	"Lee_Gateway/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := mysql.InitDB(cfg.MySQLDSN, cfg.PoolSize); err != nil {
		logger.Error("connect mysql", slog.String("error", err.Error()))
		os.Exit(1)
	}
	// 自动建表（开发阶段 OK）
	if err := mysql.AutoMigrate(mysql.DB); err != nil {
		logger.Error("migrate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 连接redis
	if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.Error("connect redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redis.Close()

	var events gateway.Publisher
	if kc, ok := cfg.Kafka(); ok {
		producer, err := pkg.NewKafkaProducer(kc)
		if err != nil {
			logger.Error("kafka producer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer producer.Close()
		events = producer
	} else {
		logger.Warn("no kafka brokers configured, events disabled", slog.String("module", "main"))
	}

	store := mysql.NewStore(mysql.DB)
	pool := blocking.NewPool(cfg.PoolSize, cfg.PoolQueueTimeout)
	jwt := pkg.NewJWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	tokens := redis.NewUserRepository(redis.Client, cfg.JWTTTL)
	hub := ws.NewHub()

	app := &gateway.Context{
		Pool:   pool,
		Store:  store,
		Auth:   auth.NewResolver(jwt, store, tokens, pool),
		Guard:  guard.New(store, pool),
		JWT:    jwt,
		Tokens: tokens,
		Codes:  redis.NewEmailRepository(redis.Client),
		Mailer: pkg.NewMailer(cfg.SMTP()),
		Events: events,
		Rooms:  hub,
		Logger: logger,
	}
	dispatcher := gateway.NewDispatcher(api.NewRegistry(), app)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.InitRouter(dispatcher, hub, logger),
	}

	go func() {
		logger.Info("gateway listening",
			slog.String("addr", cfg.HTTPAddr),
			slog.Int("ops", len(dispatcher.Registry().Ops())),
			slog.Int("workers", pool.Size()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", slog.String("error", err.Error()))
	}
	// 等待已提交的存储调用结束
	if err := pool.Close(ctx); err != nil {
		logger.Warn("worker pool shutdown", slog.String("error", err.Error()))
	}
}
