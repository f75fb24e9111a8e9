package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"Lee_Gateway/internal/apierr"
)

// Tag is the stable wire name of an operation.
type Tag string

// handler 解码 payload 并执行对应命令
type handler func(ctx context.Context, app *Context, data []byte, conn *ConnectionID) (any, error)

type Registry struct {
	entries  map[Tag]handler
	validate *validator.Validate
}

func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[Tag]handler),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register binds op to command type C. Registering the same tag twice panics.
func Register[C Command[R], R any](r *Registry, op Tag) {
	if _, dup := r.entries[op]; dup {
		panic(fmt.Sprintf("gateway: operation %q registered twice", op))
	}
	r.entries[op] = func(ctx context.Context, app *Context, data []byte, conn *ConnectionID) (any, error) {
		cmd, err := decode[C](r.validate, data)
		if err != nil {
			return nil, err
		}
		return cmd.Perform(ctx, app, conn)
	}
}

func decode[C any](v *validator.Validate, data []byte) (C, error) {
	var cmd C
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, apierr.Wrap(apierr.MalformedPayload, errors.Wrap(err, "decode payload"))
	}
	if err := v.Struct(cmd); err != nil {
		return cmd, apierr.Wrap(apierr.MalformedPayload, errors.Wrap(err, "validate payload"))
	}
	return cmd, nil
}

func (r *Registry) lookup(op Tag) (handler, bool) {
	h, ok := r.entries[op]
	return h, ok
}

func (r *Registry) Has(op Tag) bool {
	_, ok := r.entries[op]
	return ok
}

// Ops 按字典序返回所有已注册的操作
func (r *Registry) Ops() []Tag {
	ops := make([]Tag, 0, len(r.entries))
	for op := range r.entries {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
