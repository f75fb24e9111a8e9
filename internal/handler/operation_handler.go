package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/middleware"
)

// maxBodySize 单个请求体上限
const maxBodySize = 1 << 20

type OperationHandler struct {
	dispatcher *gateway.Dispatcher
}

func NewOperationHandler(d *gateway.Dispatcher) *OperationHandler {
	return &OperationHandler{dispatcher: d}
}

// Perform POST /api/v1/op/:op，请求体即 payload
func (h *OperationHandler) Perform(c *gin.Context) {
	op := gateway.Tag(c.Param("op"))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		h.fail(c, op, apierr.Wrap(apierr.MalformedPayload, err))
		return
	}
	body = withAuth(body, "auth", middleware.TokenFrom(c))

	out, err := h.dispatcher.Dispatch(c.Request.Context(), op, body, nil)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func (h *OperationHandler) fail(c *gin.Context, op gateway.Tag, err error) {
	c.Data(statusOf(err), "application/json; charset=utf-8", gateway.SerializeError(op, err))
}

// Ops 列出所有可用操作
func (h *OperationHandler) Ops(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ops": h.dispatcher.Registry().Ops()})
}

func statusOf(err error) int {
	switch apierr.KindOf(err) {
	case apierr.Unauthenticated:
		return http.StatusUnauthorized
	case apierr.SiteBanned, apierr.NotAnAdmin, apierr.NotAModOrAdmin, apierr.CommunityBanned:
		return http.StatusForbidden
	case apierr.PostNotFound, apierr.CommunityNotFound, apierr.CommentNotFound, apierr.UserNotFound, apierr.UnknownOperation:
		return http.StatusNotFound
	case apierr.InfrastructureFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// withAuth 把 header 里的 token 写到 payload 的 path 处；payload 自带 auth 时不覆盖。
// 不是 JSON 对象的 payload 原样返回，交给解码步骤报错。
func withAuth(payload []byte, path, token string) []byte {
	if token == "" {
		return payload
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return payload
	}
	if gjson.GetBytes(payload, path).Exists() {
		return payload
	}
	out, err := sjson.SetBytes(payload, path, token)
	if err != nil {
		return payload
	}
	return out
}
