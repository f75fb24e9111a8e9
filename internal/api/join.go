package api

import (
	"context"

	"Lee_Gateway/internal/gateway"
)

// 房间订阅只对 websocket 连接有意义；HTTP 请求没有连接 ID，返回 joined=false

type UserJoin struct {
	Auth string `json:"auth"`
}

func (u UserJoin) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (JoinResponse, error) {
	me, err := app.Auth.Resolve(ctx, u.Auth)
	if err != nil {
		return JoinResponse{}, err
	}
	if conn == nil {
		return JoinResponse{}, nil
	}
	app.Rooms.JoinUser(*conn, me.ID)
	return JoinResponse{Joined: true}, nil
}

type PostJoin struct {
	PostID uint64 `json:"post_id" validate:"required"`
}

func (p PostJoin) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (JoinResponse, error) {
	if conn == nil {
		return JoinResponse{}, nil
	}
	app.Rooms.JoinPost(*conn, p.PostID)
	return JoinResponse{Joined: true}, nil
}

type CommunityJoin struct {
	CommunityID uint64 `json:"community_id" validate:"required"`
}

func (c CommunityJoin) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (JoinResponse, error) {
	if conn == nil {
		return JoinResponse{}, nil
	}
	app.Rooms.JoinCommunity(*conn, c.CommunityID)
	return JoinResponse{Joined: true}, nil
}
