package gateway

import (
	"context"
	"log/slog"

	"Lee_Gateway/internal/auth"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/guard"
	"Lee_Gateway/internal/pkg"
	"Lee_Gateway/internal/repository"
)

// ConnectionID identifies one transport session. It is owned by the
// transport and only threaded through to commands.
type ConnectionID uint64

// Rooms 由传输层实现，命令通过它把结果推送给订阅了同一对象的连接
type Rooms interface {
	JoinUser(conn ConnectionID, userID uint64)
	JoinPost(conn ConnectionID, postID uint64)
	JoinCommunity(conn ConnectionID, communityID uint64)
	PostOnline(postID uint64) int
	CommunityOnline(communityID uint64) int
	SendUser(op Tag, v any, userID uint64, skip *ConnectionID)
	SendPost(op Tag, v any, postID uint64, skip *ConnectionID)
	SendCommunity(op Tag, v any, communityID uint64, skip *ConnectionID)
}

type Publisher interface {
	Publish(ctx context.Context, ev pkg.Event) error
}

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Context is the process-wide state shared by every command.
type Context struct {
	Pool   *blocking.Pool
	Store  repository.Store
	Auth   *auth.Resolver
	Guard  *guard.Guards
	JWT    *pkg.JWT
	Tokens repository.TokenStore
	Codes  repository.CodeStore
	Mailer Mailer
	Events Publisher
	Rooms  Rooms
	Logger *slog.Logger
}

// Publish 事件投递失败只记日志，不影响命令结果
func (c *Context) Publish(ctx context.Context, ev pkg.Event) {
	if c.Events == nil {
		return
	}
	if err := c.Events.Publish(ctx, ev); err != nil {
		c.logger().WarnContext(ctx, "publish event failed",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
	}
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
