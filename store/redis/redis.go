// Package redis adapts a go-redis client to store.Store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/collcache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ store.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Redis) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
		case string:
			out[i] = []byte(vv)
		case []byte:
			out[i] = vv
		default:
			return nil, fmt.Errorf("redis store: unexpected MGET value %T at %q", v, keys[i])
		}
	}
	return out, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *Redis) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.rdb.SAdd(ctx, key, anys(members)...).Err()
}

func (s *Redis) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.rdb.SRem(ctx, key, anys(members)...).Err()
}

func (s *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.rdb.SMembers(ctx, key).Result()
}

func (s *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Expire(ctx, key, ttl).Err()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
