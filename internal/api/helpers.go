package api

import (
	"context"
	"time"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/model"
	"Lee_Gateway/internal/pkg"
)

// load 在 worker 上执行仓储调用；桥接失败报基础设施错误，仓储错误转换为 kind
func load[T any](ctx context.Context, app *gateway.Context, kind apierr.Kind, fn func() (T, error)) (T, error) {
	res, err := blocking.Do(ctx, app.Pool, fn)
	if err != nil {
		var zero T
		return zero, apierr.Infrastructure(err, string(kind))
	}
	if res.Err != nil {
		return res.Value, apierr.Wrap(kind, res.Err)
	}
	return res.Value, nil
}

func exec(ctx context.Context, app *gateway.Context, kind apierr.Kind, fn func() error) error {
	_, err := load(ctx, app, kind, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// issueToken 签发 token 并记为该用户当前唯一有效的 token
func issueToken(ctx context.Context, app *gateway.Context, userID uint64) (LoginResponse, error) {
	tok, err := app.JWT.Issue(userID)
	if err != nil {
		return LoginResponse{}, apierr.Infrastructure(err, "sign token")
	}
	if app.Tokens != nil {
		if err := app.Tokens.AddUserToken(ctx, userID, tok); err != nil {
			return LoginResponse{}, apierr.Infrastructure(err, "store token")
		}
	}
	return LoginResponse{JWT: tok}, nil
}

func event(typ string, actor, target, community uint64, reason string) pkg.Event {
	return pkg.Event{
		Type:      typ,
		ActorID:   actor,
		TargetID:  target,
		Community: community,
		Reason:    reason,
		At:        time.Now().UTC(),
	}
}

// pageOf 与列表接口一致：page 从 1 开始，limit 默认 20，最大 50
func pageOf(page, limit int) (offset, size int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return (page - 1) * limit, limit
}

type UserView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Admin     bool      `json:"admin"`
	Banned    bool      `json:"banned"`
	Published time.Time `json:"published"`
}

// userView 邮箱只给本人看
func userView(u *model.User, self bool) UserView {
	v := UserView{
		ID:        u.ID,
		Name:      u.Username,
		Admin:     u.Admin,
		Banned:    u.Banned,
		Published: u.CreatedAt,
	}
	if self {
		v.Email = u.Email
	}
	return v
}

type PostView struct {
	model.Post
	MyVote *int8 `json:"my_vote,omitempty"`
	Saved  *bool `json:"saved,omitempty"`
}

type JoinResponse struct {
	Joined bool `json:"joined"`
}
