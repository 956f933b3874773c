package collcache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/collcache/codec"
	"github.com/unkn0wn-root/collcache/compress"
	"github.com/unkn0wn-root/collcache/internal/keys"
	"github.com/unkn0wn-root/collcache/internal/retry"
	"github.com/unkn0wn-root/collcache/store"
)

// DefaultBatchSize caps the number of keys in one multi-key store call.
const DefaultBatchSize = 2500

// FallbackFunc produces the authoritative full record set. It is called
// when the collection's index is empty.
type FallbackFunc[T any] func(ctx context.Context) ([]T, error)

// Static returns a FallbackFunc that always yields records.
func Static[T any](records ...T) FallbackFunc[T] {
	return func(context.Context) ([]T, error) { return records, nil }
}

// FromFunc adapts a producer that cannot fail.
func FromFunc[T any](fn func(context.Context) []T) FallbackFunc[T] {
	return func(ctx context.Context) ([]T, error) { return fn(ctx), nil }
}

// Identifiable is implemented by record types that carry their own
// identifier. It is used when a request configures no identifier source.
type Identifiable interface {
	Identifier() string
}

// Merger lets a record type control how a replacement record is applied
// during Update. Without it the stored record is overwritten as a whole.
type Merger[T any] interface {
	MergeInto(dst *T)
}

// RetryPolicy bounds every store call. Zero fields take defaults:
// 3 attempts, 10s ceiling per call, 50ms..1s exponential backoff.
type RetryPolicy struct {
	MaxAttempts     uint
	Timeout         time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Retryable classifies store errors; nil retries all but context errors.
	Retryable func(error) bool
}

// Options configure a Collection. Only Store is required.
type Options[T any] struct {
	Store store.Store

	// CollectionKey names the index set and prefixes every item key.
	// Default: the record type name, tagged with the compressor name when
	// compression is on (e.g. "Widget@lz4").
	CollectionKey string
	// Expiration is applied to the index key after every mutation and
	// initialization. Item keys never expire. 0 => no expiry.
	Expiration time.Duration
	// BatchSize caps keys per multi-key call (Read, Replace). 0 => 2500.
	BatchSize int
	// DisableCompression stores serialized records as-is.
	DisableCompression bool
	Compressor         compress.Compressor // nil => LZ4
	Codec              codec.Codec[T]      // nil => JSON

	// Fallback is the default producer; a request may override it.
	Fallback FallbackFunc[T]
	// IDFunc is the collection-wide identifier selector used when a
	// request configures no identifier source of its own. It takes
	// precedence over Identifiable.
	IDFunc func(T) string

	Retry  RetryPolicy
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Collection manages one cache-aside collection. It is immutable after New
// and safe for concurrent use; all state lives in the store.
type Collection[T any] struct {
	key        string
	store      store.Store
	codec      codec.Codec[T]
	compressor compress.Compressor // nil => compression disabled
	expiration time.Duration
	batchSize  int
	fallback   FallbackFunc[T]
	idFunc     func(T) string
	exec       *retry.Executor
	log        Logger
	hooks      Hooks
}

func New[T any](opts Options[T]) (*Collection[T], error) {
	if opts.Store == nil {
		return nil, errors.New("collcache: store is required")
	}
	if opts.BatchSize < 0 {
		return nil, errors.Newf("collcache: batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.Expiration < 0 {
		return nil, errors.Newf("collcache: expiration must not be negative, got %s", opts.Expiration)
	}

	c := &Collection[T]{
		store:      opts.Store,
		expiration: opts.Expiration,
		fallback:   opts.Fallback,
		idFunc:     opts.IDFunc,
	}

	// defaults
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.batchSize = positive(opts.BatchSize, DefaultBatchSize)
	if opts.Codec != nil {
		c.codec = opts.Codec
	} else {
		c.codec = codec.JSON[T]{}
	}

	tag := ""
	if !opts.DisableCompression {
		c.compressor = coalesce[compress.Compressor](opts.Compressor, compress.LZ4{})
		tag = c.compressor.Name()
	}
	c.key = coalesce(opts.CollectionKey, keys.Collection[T](tag))
	c.log = WithFields(coalesce[Logger](opts.Logger, NopLogger{}), Fields{"collection": c.key})

	c.exec = retry.New(retry.Policy{
		MaxAttempts:     opts.Retry.MaxAttempts,
		Timeout:         opts.Retry.Timeout,
		InitialInterval: opts.Retry.InitialInterval,
		MaxInterval:     opts.Retry.MaxInterval,
		Retryable:       opts.Retry.Retryable,
	}, func(op string, attempt uint, err error, next time.Duration) {
		c.hooks.StoreRetry(op, attempt, err, next)
		c.log.Debug("store call failed; retrying", Fields{"call": op, "attempt": attempt, "next": next, "err": err})
	})

	return c, nil
}

// Key returns the collection key (the index key).
func (c *Collection[T]) Key() string { return c.key }

// ItemKey returns the storage key of the record with the given identifier.
func (c *Collection[T]) ItemKey(id string) string { return keys.Item(c.key, id) }

// Compressed reports whether stored payloads are block-compressed.
func (c *Collection[T]) Compressed() bool { return c.compressor != nil }

// Close closes the underlying store.
func (c *Collection[T]) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}
