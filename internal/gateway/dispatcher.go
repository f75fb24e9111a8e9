package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"Lee_Gateway/internal/apierr"
)

var tracer = otel.Tracer("gateway")

// Request is an inbound envelope.
type Request struct {
	Op   Tag             `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Response is an outbound envelope; Op always equals the request's Op.
type Response struct {
	Op   Tag             `json:"op"`
	Data json.RawMessage `json:"data"`
}

// ErrorResponse 失败时传输层回给客户端的内容，只含错误码
type ErrorResponse struct {
	Op    Tag    `json:"op,omitempty"`
	Error string `json:"error"`
}

type Dispatcher struct {
	registry *Registry
	app      *Context
}

func NewDispatcher(registry *Registry, app *Context) *Dispatcher {
	return &Dispatcher{registry: registry, app: app}
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch decodes data into op's command, performs it and returns the
// serialized outbound envelope. Errors carry an apierr.Kind and are returned
// without an envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, op Tag, data []byte, conn *ConnectionID) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("op", string(op)))

	h, ok := d.registry.lookup(op)
	if !ok {
		err := apierr.New(apierr.UnknownOperation)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apierr.UnknownOperation))
		d.logFailure(ctx, op, conn, err)
		return nil, err
	}

	res, err := h(ctx, d.app, data, conn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apierr.KindOf(err)))
		d.logFailure(ctx, op, conn, err)
		return nil, err
	}

	out, err := Serialize(op, res)
	if err != nil {
		err = apierr.Infrastructure(err, "serialize response")
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apierr.InfrastructureFailure))
		d.logFailure(ctx, op, conn, err)
		return nil, err
	}
	return out, nil
}

// DispatchEnvelope 解析 {op, data} 后分发
func (d *Dispatcher) DispatchEnvelope(ctx context.Context, raw []byte, conn *ConnectionID) (Tag, []byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", nil, apierr.Wrap(apierr.MalformedPayload, errors.Wrap(err, "decode envelope"))
	}
	out, err := d.Dispatch(ctx, req.Op, req.Data, conn)
	return req.Op, out, err
}

func (d *Dispatcher) logFailure(ctx context.Context, op Tag, conn *ConnectionID, err error) {
	kind := apierr.KindOf(err)
	attrs := []any{
		slog.String("op", string(op)),
		slog.String("code", string(kind)),
		slog.String("error", err.Error()),
		slog.String("module", "gateway"),
	}
	if conn != nil {
		attrs = append(attrs, slog.Uint64("conn", uint64(*conn)))
	}
	if kind == apierr.InfrastructureFailure {
		d.app.logger().ErrorContext(ctx, "operation failed", attrs...)
		return
	}
	d.app.logger().WarnContext(ctx, "operation rejected", attrs...)
}

// Serialize wraps v in an outbound envelope tagged op.
func Serialize(op Tag, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Response{Op: op, Data: data})
}

// SerializeError 错误码在边界处转为稳定字符串
func SerializeError(op Tag, err error) []byte {
	b, _ := json.Marshal(ErrorResponse{Op: op, Error: string(apierr.KindOf(err))})
	return b
}
