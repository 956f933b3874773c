package collcache

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Request is one validated unit of work against a Collection. It is an
// immutable value; build it with the Builder returned by Collection.Read,
// Add, Update, Delete or Replace.
type Request[T any] struct {
	op       Operation
	item     T
	hasItem  bool
	id       idSource[T]
	fallback FallbackFunc[T]
	changes  func(*T) error
}

// Operation returns the kind of work the request performs.
func (r Request[T]) Operation() Operation { return r.op }

// Builder assembles a Request. Every method returns a modified copy, so a
// partially configured Builder can be shared and extended safely.
type Builder[T any] struct {
	c *Collection[T]
	r Request[T]
}

func (c *Collection[T]) builder(op Operation) Builder[T] {
	return Builder[T]{c: c, r: Request[T]{op: op}}
}

// Read returns all records of the collection, initializing it first if empty.
func (c *Collection[T]) Read() Builder[T] { return c.builder(OpRead) }

// Add stores item and registers its identifier in the index.
func (c *Collection[T]) Add(item T) Builder[T] { return c.builder(OpAdd).Item(item) }

// Update modifies a stored record, either through Changes or by applying a
// replacement record set with Item.
func (c *Collection[T]) Update() Builder[T] { return c.builder(OpUpdate) }

// Delete removes a record. The target is named by Item or ID.
func (c *Collection[T]) Delete() Builder[T] { return c.builder(OpDelete) }

// Replace tears the collection down and repopulates it from the fallback.
func (c *Collection[T]) Replace() Builder[T] { return c.builder(OpReplace) }

// Item sets the record the request operates on.
func (b Builder[T]) Item(item T) Builder[T] {
	b.r.item = item
	b.r.hasItem = true
	return b
}

// IDFunc derives identifiers with fn. It also applies to records produced
// by the fallback during initialization.
func (b Builder[T]) IDFunc(fn func(T) string) Builder[T] {
	b.r.id.selector = fn
	return b
}

// IDProperty derives identifiers from the named exported field, matched by
// Go name or json tag.
func (b Builder[T]) IDProperty(name string) Builder[T] {
	b.r.id.property = name
	return b
}

// ID names the target record directly. Update and Delete need no record
// when ID is set.
func (b Builder[T]) ID(id string) Builder[T] {
	b.r.id.literal = id
	b.r.id.hasLiteral = true
	return b
}

// Fallback overrides the collection's default fallback for this request.
func (b Builder[T]) Fallback(fn FallbackFunc[T]) Builder[T] {
	b.r.fallback = fn
	return b
}

// Changes sets an in-place modification applied to the stored record during
// Update. It takes priority over Item.
func (b Builder[T]) Changes(fn func(*T) error) Builder[T] {
	b.r.changes = fn
	return b
}

// Build validates the request.
func (b Builder[T]) Build() (Request[T], error) {
	if b.r.id.configured() > 1 {
		return Request[T]{}, ErrMultipleIdentifierSources
	}
	if b.r.op == OpAdd && !b.r.hasItem {
		return Request[T]{}, errors.Wrap(ErrItemNotSet, "add")
	}
	return b.r, nil
}

// Execute builds the request and runs it against the collection.
func (b Builder[T]) Execute(ctx context.Context) ([]T, error) {
	r, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.c.Execute(ctx, r)
}

// EnsureInitialized builds the request and populates the collection from
// its fallback when the index is empty. No operation is performed.
func (b Builder[T]) EnsureInitialized(ctx context.Context) (err error) {
	r, err := b.Build()
	if err != nil {
		return err
	}
	defer b.c.recovered(r.op, &err)
	_, err = b.c.ensureInitialized(ctx, r)
	return err
}
