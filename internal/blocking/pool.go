// Package blocking runs synchronous storage work on a bounded set of workers
// so request goroutines never tie up more than Size database connections.
//
// Failures come in two layers. Run returns an error only when the pool
// itself could not deliver a result (closed, exhausted, worker panic, caller
// gone). Whatever the closure returns, including a domain-level failure
// carried in Result.Err, is handed back untouched for the caller to inspect.
//
// Cancellation is weak: once a closure has started it runs to completion
// even if the caller's context ends; its result is then discarded.
package blocking

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

var (
	ErrPoolClosed    = errors.New("blocking pool closed")
	ErrPoolExhausted = errors.New("blocking pool exhausted")
	ErrWorkerPanic   = errors.New("blocking worker panicked")
)

const (
	DefaultSize         = 16
	DefaultQueueTimeout = 5 * time.Second
)

type Pool struct {
	sem          *semaphore.Weighted
	size         int64
	queueTimeout time.Duration
	closed       atomic.Bool
	inFlight     atomic.Int64
}

// NewPool size<=0 使用默认值；queueTimeout<=0 表示无限等待（仅受调用方 ctx 约束）
func NewPool(size int, queueTimeout time.Duration) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		sem:          semaphore.NewWeighted(int64(size)),
		size:         int64(size),
		queueTimeout: queueTimeout,
	}
}

func (p *Pool) Size() int { return int(p.size) }

// InFlight 当前正在执行的闭包数量
func (p *Pool) InFlight() int { return int(p.inFlight.Load()) }

// Close 停止接收新任务，并等待已开始的任务结束
func (p *Pool) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.sem.Acquire(ctx, p.size); err != nil {
		return errors.Wrap(err, "wait for in-flight work")
	}
	p.sem.Release(p.size)
	return nil
}

type outcome[T any] struct {
	val T
	err error
}

// Run executes fn on a worker and waits for its value.
func Run[T any](ctx context.Context, p *Pool, fn func() T) (T, error) {
	var zero T
	if p.closed.Load() {
		return zero, ErrPoolClosed
	}

	acquireCtx := ctx
	if p.queueTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.queueTimeout)
		defer cancel()
	}
	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return zero, errors.Wrap(ctx.Err(), "caller gone before dispatch")
		}
		return zero, ErrPoolExhausted
	}
	// 排队期间可能已关闭
	if p.closed.Load() {
		p.sem.Release(1)
		return zero, ErrPoolClosed
	}

	// 缓冲为 1：调用方离开后 worker 仍可写入并退出
	done := make(chan outcome[T], 1)
	p.inFlight.Add(1)
	go func() {
		defer p.sem.Release(1)
		defer p.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: errors.Wrapf(ErrWorkerPanic, "%v", r)}
			}
		}()
		done <- outcome[T]{val: fn()}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return zero, errors.Wrap(ctx.Err(), "caller gone while waiting for worker")
	}
}

// Result is a value-or-failure produced by the closure itself.
type Result[T any] struct {
	Value T
	Err   error
}

// Do 适配 (T, error) 形式的仓储方法，保留两层错误
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (Result[T], error) {
	return Run(ctx, p, func() Result[T] {
		v, err := fn()
		return Result[T]{Value: v, Err: err}
	})
}
