package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Client 进程级客户端，token 与验证码仓储共用
var Client *redis.Client

// Init 初始化 Redis 客户端并做一次 Ping 健康检查。
// 吊销检查在每个需要登录的操作上都会走一次，读写超时保持较短。
func Init(addr, password string, db int) error {
	c := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     32,
		MinIdleConns: 4,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return errors.Wrapf(err, "ping redis %s", addr)
	}
	Client = c
	return nil
}

// Close 关闭 Redis 客户端（在程序退出时调用）。
func Close() error {
	if Client == nil {
		return nil
	}
	return Client.Close()
}
