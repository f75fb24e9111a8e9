package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	CodeResetPrefix     = "email:code:reset"
)

var (
	ErrEmailNotFound      = errors.New("email not found")
	ErrCodePendingFailed  = errors.New("code pending failed")
	ErrEmailCodeDelFailed = errors.New("email code delete failed")
)

// EmailRepository 密码重置验证码
type EmailRepository struct {
	RDB *redis.Client
}

func NewEmailRepository(rdb *redis.Client) *EmailRepository {
	return &EmailRepository{RDB: rdb}
}

func (e *EmailRepository) key(email string) string {
	return fmt.Sprintf("%s:%s", CodeResetPrefix, email)
}

// SaveResetCode 覆盖写入，重新计时
func (e *EmailRepository) SaveResetCode(ctx context.Context, email, code string) error {
	if err := e.RDB.Set(ctx, e.key(email), code, DefaultEmailCodeTTL).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

func (e *EmailRepository) GetResetCode(ctx context.Context, email string) (string, error) {
	val, err := e.RDB.Get(ctx, e.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmailNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return val, nil
}

// DeleteResetCode 幂等删除
func (e *EmailRepository) DeleteResetCode(ctx context.Context, email string) error {
	if err := e.RDB.Del(ctx, e.key(email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}
