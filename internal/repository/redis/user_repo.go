package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 24 * time.Hour
)

// UserRepository 保存每个用户当前有效的登录 token；key 不存在即视为已吊销
type UserRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewUserRepository(rdb *redis.Client, ttl time.Duration) *UserRepository {
	if ttl <= 0 {
		ttl = UserTokenExpire
	}
	return &UserRepository{RDB: rdb, TTL: ttl}
}

func (r *UserRepository) key(usrID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, usrID)
}

func (r *UserRepository) AddUserToken(ctx context.Context, usrID uint64, token string) error {
	if err := r.RDB.Set(ctx, r.key(usrID), token, r.TTL).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *UserRepository) GetUserToken(ctx context.Context, usrID uint64) (string, error) {
	token, err := r.RDB.Get(ctx, r.key(usrID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

func (r *UserRepository) DeleteUserToken(ctx context.Context, usrID uint64) error {
	if err := r.RDB.Del(ctx, r.key(usrID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
