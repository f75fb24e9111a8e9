package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/handler"
	"Lee_Gateway/internal/middleware"
	"Lee_Gateway/internal/ws"
)

func InitRouter(dispatcher *gateway.Dispatcher, hub *ws.Hub, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	op := handler.NewOperationHandler(dispatcher)
	socket := handler.NewSocketHandler(dispatcher, hub, logger)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.BearerToken())
	{
		v1.GET("/ops", op.Ops)
		v1.POST("/op/:op", op.Perform)
		v1.GET("/ws", socket.Serve)
	}

	return r
}
