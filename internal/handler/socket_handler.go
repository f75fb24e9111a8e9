package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/middleware"
	"Lee_Gateway/internal/ws"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type SocketHandler struct {
	dispatcher *gateway.Dispatcher
	hub        *ws.Hub
	logger     *slog.Logger
}

func NewSocketHandler(d *gateway.Dispatcher, hub *ws.Hub, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{dispatcher: d, hub: hub, logger: logger}
}

// Serve GET /api/v1/ws，每个文本帧是一个 {op, data} 信封
func (h *SocketHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	token := middleware.TokenFrom(c)

	id, send := h.hub.Connect()
	defer h.hub.Disconnect(id)
	h.logger.DebugContext(ctx, "socket connected",
		slog.Uint64("conn", uint64(id)),
		slog.String("module", "socket"),
	)

	conn.SetReadLimit(maxMessageSize)
	quit := make(chan struct{})
	// 直接回复不走 hub 的可丢弃队列：读协程阻塞等待写协程取走
	replies := make(chan []byte)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(quit)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) &&
					(closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway) {
					h.logger.DebugContext(ctx, "socket closed",
						slog.Uint64("conn", uint64(id)),
						slog.String("module", "socket"),
					)
				} else {
					h.logger.WarnContext(ctx, "error reading message",
						slog.Uint64("conn", uint64(id)),
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			if data := gjson.GetBytes(msg, "data"); !data.Exists() || data.IsObject() {
				msg = withAuth(msg, "data.auth", token)
			}
			op, out, err := h.dispatcher.DispatchEnvelope(ctx, msg, &id)
			if err != nil {
				out = gateway.SerializeError(op, err)
			}
			select {
			case replies <- out:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return
		case msg := <-replies:
			if !h.write(ctx, conn, id, msg) {
				return
			}
		case msg, ok := <-send:
			if !ok {
				return
			}
			if !h.write(ctx, conn, id, msg) {
				return
			}
		}
	}
}

func (h *SocketHandler) write(ctx context.Context, conn *websocket.Conn, id gateway.ConnectionID, msg []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		h.logger.WarnContext(ctx, "error writing message",
			slog.Uint64("conn", uint64(id)),
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return false
	}
	return true
}
