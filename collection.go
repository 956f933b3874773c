package collcache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/collcache/internal/keys"
	"github.com/unkn0wn-root/collcache/internal/retry"
)

// Execute runs req. Every operation except Replace first makes sure the
// collection is initialized.
//
// Read returns all records ordered by identifier. Add and Update return the
// stored record. Delete returns nil. Replace returns the records written by
// repopulation (nil if a concurrent caller repopulated first).
func (c *Collection[T]) Execute(ctx context.Context, req Request[T]) (out []T, err error) {
	defer c.recovered(req.op, &err)

	if req.op != OpReplace {
		if _, err := c.ensureInitialized(ctx, req); err != nil {
			return nil, err
		}
	}

	switch req.op {
	case OpRead:
		return c.read(ctx)
	case OpAdd:
		return c.add(ctx, req)
	case OpUpdate:
		return c.update(ctx, req)
	case OpDelete:
		return nil, c.delete(ctx, req)
	case OpReplace:
		return c.replace(ctx, req)
	default:
		return nil, errors.Wrapf(ErrUnexpectedOperation, "%s", req.op)
	}
}

// EnsureInitialized populates the collection from Options.Fallback when its
// index is empty. Concurrent callers may both observe an empty index and
// both populate; the writes are idempotent for a deterministic fallback.
func (c *Collection[T]) EnsureInitialized(ctx context.Context) (err error) {
	defer c.recovered(OpRead, &err)
	_, err = c.ensureInitialized(ctx, Request[T]{op: OpRead})
	return err
}

// recovered turns a panic in caller-supplied code (selectors, codecs) into
// an error. It must be deferred directly.
func (c *Collection[T]) recovered(op Operation, err *error) {
	if r := recover(); r != nil {
		*err = errors.Newf("collcache: %s on %q panicked: %v", op, c.key, r)
	}
}

// ensureInitialized returns the records it wrote, or nil when the index
// was already populated.
func (c *Collection[T]) ensureInitialized(ctx context.Context, req Request[T]) ([]T, error) {
	ids, err := c.members(ctx, req.op)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return nil, nil
	}
	return c.populate(ctx, req)
}

// populate writes every fallback record and registers it in the index.
// A failure midway leaves the records written so far in place.
func (c *Collection[T]) populate(ctx context.Context, req Request[T]) ([]T, error) {
	fb := req.fallback
	if fb == nil {
		fb = c.fallback
	}
	if fb == nil {
		return nil, errors.Wrapf(ErrNoFallback, "%q", c.key)
	}

	start := time.Now()
	recs, err := callFallback(ctx, fb)
	if err != nil {
		return nil, opErr(req.op, PhaseFallback, c.key, err)
	}
	if len(recs) == 0 {
		return nil, errors.Wrapf(ErrFallbackEmpty, "%q", c.key)
	}

	for i, rec := range recs {
		id, err := c.resolveRecord(req.id, rec)
		if err == nil {
			err = c.writeItem(ctx, req.op, id, rec)
		}
		if err == nil {
			err = c.addMember(ctx, req.op, id)
		}
		if err != nil {
			if i > 0 {
				return nil, c.partial(req.op, err)
			}
			return nil, err
		}
	}
	if err := c.touch(ctx, req.op); err != nil {
		return nil, c.partial(req.op, err)
	}

	took := time.Since(start)
	c.hooks.FallbackInvoked(c.key, len(recs), took)
	c.log.Info("collection initialized from fallback", Fields{"records": len(recs), "took": took})
	return recs, nil
}

func callFallback[T any](ctx context.Context, fb FallbackFunc[T]) (recs []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, errors.Newf("fallback panicked: %v", r)
		}
	}()
	return fb(ctx)
}

// partialError marks an error already reported through Hooks.PartialFailure.
type partialError struct{ error }

func (e *partialError) Unwrap() error { return e.error }

// partial reports a mutation that failed after earlier steps were applied.
// It reports each failure once.
func (c *Collection[T]) partial(op Operation, err error) error {
	var pe *partialError
	if errors.As(err, &pe) {
		return err
	}
	phase, _ := PhaseOf(err)
	c.hooks.PartialFailure(c.key, op, phase, err)
	c.log.Warn("operation partially applied", Fields{"op": op.String(), "phase": string(phase), "err": err})
	return &partialError{err}
}

// store wrappers: each call goes through the retry executor and failures
// come back as *OpError.

func (c *Collection[T]) members(ctx context.Context, op Operation) ([]string, error) {
	ids, err := retry.Do(ctx, c.exec, "smembers", func(ctx context.Context) ([]string, error) {
		return c.store.SMembers(ctx, c.key)
	})
	if err != nil {
		return nil, opErr(op, PhaseReadIndex, c.key, err)
	}
	return ids, nil
}

func (c *Collection[T]) writeItem(ctx context.Context, op Operation, id string, rec T) error {
	key := keys.Item(c.key, id)
	b, err := c.encode(rec)
	if err != nil {
		return opErr(op, PhaseEncode, key, err)
	}
	if err := retry.Run(ctx, c.exec, "set", func(ctx context.Context) error {
		return c.store.Set(ctx, key, b)
	}); err != nil {
		return opErr(op, PhaseWriteRecord, key, err)
	}
	return nil
}

func (c *Collection[T]) readItem(ctx context.Context, op Operation, key string) (T, bool, error) {
	var zero T
	b, ok, err := c.get(ctx, key)
	if err != nil {
		return zero, false, opErr(op, PhaseReadRecords, key, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, err := c.decode(b)
	if err != nil {
		return zero, false, opErr(op, PhaseDecode, key, err)
	}
	return v, true, nil
}

type getResult struct {
	b  []byte
	ok bool
}

func (c *Collection[T]) get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := retry.Do(ctx, c.exec, "get", func(ctx context.Context) (getResult, error) {
		b, ok, err := c.store.Get(ctx, key)
		return getResult{b, ok}, err
	})
	return r.b, r.ok, err
}

func (c *Collection[T]) mget(ctx context.Context, itemKeys []string) ([][]byte, error) {
	vals, err := retry.Do(ctx, c.exec, "mget", func(ctx context.Context) ([][]byte, error) {
		return c.store.MGet(ctx, itemKeys...)
	})
	if err != nil {
		return nil, err
	}
	if len(vals) != len(itemKeys) {
		return nil, errors.Newf("store returned %d values for %d keys", len(vals), len(itemKeys))
	}
	return vals, nil
}

func (c *Collection[T]) del(ctx context.Context, ks ...string) error {
	return retry.Run(ctx, c.exec, "del", func(ctx context.Context) error {
		return c.store.Del(ctx, ks...)
	})
}

func (c *Collection[T]) addMember(ctx context.Context, op Operation, id string) error {
	if err := retry.Run(ctx, c.exec, "sadd", func(ctx context.Context) error {
		return c.store.SAdd(ctx, c.key, id)
	}); err != nil {
		return opErr(op, PhaseUpdateIndex, c.key, err)
	}
	return nil
}

func (c *Collection[T]) removeMember(ctx context.Context, op Operation, id string) error {
	if err := retry.Run(ctx, c.exec, "srem", func(ctx context.Context) error {
		return c.store.SRem(ctx, c.key, id)
	}); err != nil {
		return opErr(op, PhaseUpdateIndex, c.key, err)
	}
	return nil
}

// touch refreshes the index expiration. Item keys never expire.
func (c *Collection[T]) touch(ctx context.Context, op Operation) error {
	if c.expiration <= 0 {
		return nil
	}
	if err := retry.Run(ctx, c.exec, "expire", func(ctx context.Context) error {
		return c.store.Expire(ctx, c.key, c.expiration)
	}); err != nil {
		return opErr(op, PhaseSetExpiration, c.key, err)
	}
	return nil
}
