package collcache

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/collcache/internal/keys"
)

// read fetches every indexed record in identifier order, batchSize keys per
// round-trip. Members without an item key are skipped.
func (c *Collection[T]) read(ctx context.Context) ([]T, error) {
	ids, err := c.members(ctx, OpRead)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		chunk := ids[start:min(start+c.batchSize, len(ids))]
		itemKeys := keys.Items(c.key, chunk)
		vals, err := c.mget(ctx, itemKeys)
		if err != nil {
			return nil, opErr(OpRead, PhaseReadRecords, c.key, err)
		}
		for i, b := range vals {
			if b == nil {
				c.hooks.OrphanedMember(c.key, chunk[i])
				c.log.Debug("index member has no item; skipped", Fields{"id": chunk[i]})
				continue
			}
			v, err := c.decode(b)
			if err != nil {
				return nil, opErr(OpRead, PhaseDecode, itemKeys[i], err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Collection[T]) add(ctx context.Context, req Request[T]) ([]T, error) {
	if !req.hasItem {
		return nil, errors.Wrap(ErrItemNotSet, "add")
	}
	id, err := c.resolveSingle(req)
	if err != nil {
		return nil, err
	}
	if err := c.writeItem(ctx, OpAdd, id, req.item); err != nil {
		return nil, err
	}
	if err := c.addMember(ctx, OpAdd, id); err != nil {
		return nil, c.partial(OpAdd, err)
	}
	if err := c.touch(ctx, OpAdd); err != nil {
		return nil, c.partial(OpAdd, err)
	}
	return []T{req.item}, nil
}

// update is read-modify-write without compare-and-swap; the last writer wins.
func (c *Collection[T]) update(ctx context.Context, req Request[T]) ([]T, error) {
	id, err := c.resolveSingle(req)
	if err != nil {
		return nil, err
	}
	if req.changes == nil && !req.hasItem {
		return nil, ErrNoChanges
	}

	key := keys.Item(c.key, id)
	cur, ok, err := c.readItem(ctx, OpUpdate, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrItemNotFound, "%q", key)
	}
	if err := applyChanges(req, &cur); err != nil {
		return nil, opErr(OpUpdate, PhaseChanges, key, err)
	}

	if err := c.writeItem(ctx, OpUpdate, id, cur); err != nil {
		return nil, err
	}
	if err := c.touch(ctx, OpUpdate); err != nil {
		return nil, c.partial(OpUpdate, err)
	}
	return []T{cur}, nil
}

// applyChanges runs the changes delegate, else merges or overwrites with
// the supplied record.
func applyChanges[T any](req Request[T], cur *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("changes panicked: %v", r)
		}
	}()
	switch {
	case req.changes != nil:
		return req.changes(cur)
	case req.hasItem:
		if m, ok := any(req.item).(Merger[T]); ok {
			m.MergeInto(cur)
		} else {
			*cur = req.item
		}
		return nil
	default:
		return ErrNoChanges
	}
}

func (c *Collection[T]) delete(ctx context.Context, req Request[T]) error {
	id, err := c.resolveSingle(req)
	if err != nil {
		return err
	}
	key := keys.Item(c.key, id)
	if err := c.del(ctx, key); err != nil {
		return opErr(OpDelete, PhaseDeleteRecord, key, err)
	}
	if err := c.removeMember(ctx, OpDelete, id); err != nil {
		return c.partial(OpDelete, err)
	}
	if err := c.touch(ctx, OpDelete); err != nil {
		return c.partial(OpDelete, err)
	}
	return nil
}

// replace removes every item and the index, then repopulates. Nothing is
// atomic: a failure after teardown began leaves the collection partly or
// fully empty until the next initialization.
func (c *Collection[T]) replace(ctx context.Context, req Request[T]) ([]T, error) {
	ids, err := c.members(ctx, OpReplace)
	if err != nil {
		return nil, err
	}
	itemKeys := keys.Items(c.key, ids)
	for start := 0; start < len(itemKeys); start += c.batchSize {
		chunk := itemKeys[start:min(start+c.batchSize, len(itemKeys))]
		if err := c.del(ctx, chunk...); err != nil {
			err = opErr(OpReplace, PhaseDeleteRecord, chunk[0], err)
			if start > 0 {
				return nil, c.partial(OpReplace, err)
			}
			return nil, err
		}
	}
	if err := c.del(ctx, c.key); err != nil {
		err = opErr(OpReplace, PhaseUpdateIndex, c.key, err)
		if len(itemKeys) > 0 {
			return nil, c.partial(OpReplace, err)
		}
		return nil, err
	}

	recs, err := c.ensureInitialized(ctx, req)
	if err != nil {
		if len(ids) > 0 {
			return nil, c.partial(OpReplace, err)
		}
		return nil, err
	}
	return recs, nil
}
