// Package guard holds the permission checks commands compose before acting.
// Every check reads through the blocking pool; a pool failure is reported as
// infrastructure_failure, never as a denial.
package guard

import (
	"context"

	"go.opentelemetry.io/otel"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/model"
)

var tracer = otel.Tracer("guard")

// Store is the persistence surface the guards read.
type Store interface {
	ReadUser(id uint64) (*model.User, error)
	ReadPost(id uint64) (*model.Post, error)
	ReadCommunity(id uint64) (*model.Community, error)
	ReadComment(id uint64) (*model.Comment, error)
	IsModOrAdmin(userID, communityID uint64) (bool, error)
	GetCommunityBan(userID, communityID uint64) (*model.CommunityUserBan, error)
}

type Guards struct {
	store Store
	pool  *blocking.Pool
}

func New(store Store, pool *blocking.Pool) *Guards {
	return &Guards{store: store, pool: pool}
}

func (g *Guards) RequireAdmin(ctx context.Context, userID uint64) error {
	ctx, span := tracer.Start(ctx, "Guard.RequireAdmin")
	defer span.End()

	res, err := blocking.Do(ctx, g.pool, func() (*model.User, error) {
		return g.store.ReadUser(userID)
	})
	if err != nil {
		span.RecordError(err)
		return apierr.Infrastructure(err, "require admin")
	}
	if res.Err != nil || !res.Value.Admin {
		return apierr.Wrap(apierr.NotAnAdmin, res.Err)
	}
	return nil
}

func (g *Guards) RequireModOrAdmin(ctx context.Context, userID, communityID uint64) error {
	ctx, span := tracer.Start(ctx, "Guard.RequireModOrAdmin")
	defer span.End()

	res, err := blocking.Do(ctx, g.pool, func() (bool, error) {
		return g.store.IsModOrAdmin(userID, communityID)
	})
	if err != nil {
		span.RecordError(err)
		return apierr.Infrastructure(err, "require mod or admin")
	}
	if res.Err != nil || !res.Value {
		return apierr.Wrap(apierr.NotAModOrAdmin, res.Err)
	}
	return nil
}

// RequireNotCommunityBanned 只有查到封禁记录才拒绝；查询出错按未封禁处理
func (g *Guards) RequireNotCommunityBanned(ctx context.Context, userID, communityID uint64) error {
	ctx, span := tracer.Start(ctx, "Guard.RequireNotCommunityBanned")
	defer span.End()

	banned, err := blocking.Run(ctx, g.pool, func() bool {
		_, err := g.store.GetCommunityBan(userID, communityID)
		return err == nil
	})
	if err != nil {
		span.RecordError(err)
		return apierr.Infrastructure(err, "check community ban")
	}
	if banned {
		return apierr.New(apierr.CommunityBanned)
	}
	return nil
}

// LoadPost 读取失败一律报 couldnt_find_post，不暴露存储细节
func (g *Guards) LoadPost(ctx context.Context, postID uint64) (*model.Post, error) {
	res, err := blocking.Do(ctx, g.pool, func() (*model.Post, error) {
		return g.store.ReadPost(postID)
	})
	if err != nil {
		return nil, apierr.Infrastructure(err, "load post")
	}
	if res.Err != nil {
		return nil, apierr.Wrap(apierr.PostNotFound, res.Err)
	}
	return res.Value, nil
}

func (g *Guards) LoadCommunity(ctx context.Context, communityID uint64) (*model.Community, error) {
	res, err := blocking.Do(ctx, g.pool, func() (*model.Community, error) {
		return g.store.ReadCommunity(communityID)
	})
	if err != nil {
		return nil, apierr.Infrastructure(err, "load community")
	}
	if res.Err != nil {
		return nil, apierr.Wrap(apierr.CommunityNotFound, res.Err)
	}
	return res.Value, nil
}

func (g *Guards) LoadComment(ctx context.Context, commentID uint64) (*model.Comment, error) {
	res, err := blocking.Do(ctx, g.pool, func() (*model.Comment, error) {
		return g.store.ReadComment(commentID)
	})
	if err != nil {
		return nil, apierr.Infrastructure(err, "load comment")
	}
	if res.Err != nil {
		return nil, apierr.Wrap(apierr.CommentNotFound, res.Err)
	}
	return res.Value, nil
}

func (g *Guards) LoadUser(ctx context.Context, userID uint64) (*model.User, error) {
	res, err := blocking.Do(ctx, g.pool, func() (*model.User, error) {
		return g.store.ReadUser(userID)
	})
	if err != nil {
		return nil, apierr.Infrastructure(err, "load user")
	}
	if res.Err != nil {
		return nil, apierr.Wrap(apierr.UserNotFound, res.Err)
	}
	return res.Value, nil
}
