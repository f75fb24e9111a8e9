package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"Lee_Gateway/internal/apierr"
)

const ContextTokenKey = "bearer_token"

// BearerToken 取出 Authorization: Bearer 中的 token 放入上下文。
// 不带头的请求照常放行，是否需要登录由具体操作决定。
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": string(apierr.Unauthenticated)})
			return
		}

		c.Set(ContextTokenKey, strings.TrimSpace(parts[1]))
		c.Next()
	}
}

// TokenFrom 返回 BearerToken 注入的 token，没有时为空串
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.InfoContext(c.Request.Context(), "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("op", c.Param("op")),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("module", "http"),
		)
	}
}
