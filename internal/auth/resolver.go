package auth

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/model"
	"Lee_Gateway/internal/pkg"
	"Lee_Gateway/internal/repository"
	"Lee_Gateway/internal/repository/redis"
)

var tracer = otel.Tracer("auth")

// TokenParser 解析并校验 token 签名与有效期
type TokenParser interface {
	Parse(token string) (*pkg.Claims, error)
}

// UserReader is the slice of the store the resolver needs.
type UserReader interface {
	ReadUser(id uint64) (*model.User, error)
}

type Resolver struct {
	parser TokenParser
	users  UserReader
	tokens repository.TokenStore
	pool   *blocking.Pool
}

// NewResolver tokens 可为 nil，此时不检查吊销状态
func NewResolver(parser TokenParser, users UserReader, tokens repository.TokenStore, pool *blocking.Pool) *Resolver {
	return &Resolver{parser: parser, users: users, tokens: tokens, pool: pool}
}

// Resolve 校验 token 并加载用户。token 无效与用户不存在都是 not_logged_in；
// 封禁检查先于吊销检查，被封禁用户看到的是 site_ban。
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Resolver.Resolve")
	defer span.End()

	if token == "" {
		return nil, apierr.New(apierr.Unauthenticated)
	}
	claims, err := r.parser.Parse(token)
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Wrap(apierr.Unauthenticated, err)
	}
	userID := claims.UserID
	span.SetAttributes(attribute.Int64("user_id", int64(userID)))

	res, err := blocking.Do(ctx, r.pool, func() (*model.User, error) {
		return r.users.ReadUser(userID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Infrastructure(err, "load user")
	}
	if res.Err != nil {
		return nil, apierr.Wrap(apierr.Unauthenticated, res.Err)
	}
	user := res.Value
	if user.Banned {
		return nil, apierr.New(apierr.SiteBanned)
	}

	if r.tokens != nil {
		cur, err := blocking.Do(ctx, r.pool, func() (string, error) {
			return r.tokens.GetUserToken(ctx, userID)
		})
		if err != nil {
			span.RecordError(err)
			return nil, apierr.Infrastructure(err, "token revocation lookup")
		}
		switch {
		case errors.Is(cur.Err, redis.ErrTokenNotFound):
			return nil, apierr.Wrap(apierr.Unauthenticated, cur.Err)
		case cur.Err != nil:
			span.RecordError(cur.Err)
			return nil, apierr.Infrastructure(cur.Err, "token revocation lookup")
		case cur.Value != token:
			// 已在别处登录或已登出
			return nil, apierr.New(apierr.Unauthenticated)
		}
	}
	return user, nil
}

// ResolveOptional 未携带 token 时返回 (nil, nil)
func (r *Resolver) ResolveOptional(ctx context.Context, token *string) (*model.User, error) {
	if token == nil || *token == "" {
		return nil, nil
	}
	return r.Resolve(ctx, *token)
}
