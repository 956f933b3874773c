// Package retry runs store calls with bounded retries and an overall deadline.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxAttempts     = 3
	DefaultTimeout         = 10 * time.Second
	DefaultInitialInterval = 50 * time.Millisecond
	DefaultMaxInterval     = time.Second
)

// ErrTimeout marks a call that hit the executor's ceiling rather than the
// caller's own deadline.
var ErrTimeout = errors.New("store call timed out")

// Policy bounds one resilient call. Zero fields take the defaults above.
type Policy struct {
	MaxAttempts     uint          // total tries including the first
	Timeout         time.Duration // ceiling across all attempts of one call
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Retryable classifies errors; nil retries everything except context errors.
	Retryable func(error) bool
}

// Notify is told about every failed attempt that will be retried.
type Notify func(op string, attempt uint, err error, next time.Duration)

// Executor applies a Policy. It holds no mutable state and is safe to share.
type Executor struct {
	p      Policy
	notify Notify
}

func New(p Policy, notify Notify) *Executor {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultInitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultMaxInterval
	}
	return &Executor{p: p, notify: notify}
}

// Policy returns the effective policy with defaults applied.
func (e *Executor) Policy() Policy { return e.p }

// Do runs fn until it succeeds, fails permanently, runs out of attempts or
// the Timeout ceiling passes. fn receives the deadline-bound context.
func Do[T any](ctx context.Context, e *Executor, op string, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, e.p.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.p.InitialInterval
	b.MaxInterval = e.p.MaxInterval

	var attempt uint
	v, err := backoff.Retry(cctx, func() (T, error) {
		attempt++
		v, err := fn(cctx)
		if err != nil && !e.retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(e.p.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			if e.notify != nil {
				e.notify(op, attempt, err, next)
			}
		}),
	)
	if err != nil && ctx.Err() == nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s: %w after %s: %w", op, ErrTimeout, e.p.Timeout, err)
	}
	return v, err
}

// Run is Do for calls without a result.
func Run(ctx context.Context, e *Executor, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, e, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (e *Executor) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if e.p.Retryable != nil {
		return e.p.Retryable(err)
	}
	return true
}
