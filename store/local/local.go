// Package local is an in-process store.Store for tests, single-binary
// deployments and local development.
//
// Item payloads live in allegro/bigcache (off-heap friendly, no per-entry
// GC pressure). Index sets and key deadlines are kept in plain maps behind
// one mutex. Expiry is lazy: an expired key is dropped when next touched.
package local

import (
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/collcache/store"
)

// DefaultLifeWindow keeps item payloads effectively forever. bigcache evicts
// entries older than LifeWindow on write, and item keys must not expire on
// their own.
const DefaultLifeWindow = 10 * 365 * 24 * time.Hour

var ErrClosed = errors.New("local store: closed")

type Config struct {
	LifeWindow         time.Duration // 0 => DefaultLifeWindow
	Shards             int           // power of two; 0 => 64
	MaxEntriesInWindow int           // sizing hint; 0 => 10000
	MaxEntrySize       int           // initial entry size hint in bytes
	HardMaxCacheSizeMB int           // ~ memory limit; 0 = unlimited
}

type Local struct {
	items *bc.BigCache

	mu        sync.Mutex
	sets      map[string]map[string]struct{}
	deadlines map[string]time.Time
	closed    bool

	now func() time.Time
}

var _ store.Store = (*Local)(nil)

func New(cfg Config) (*Local, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = DefaultLifeWindow
	}
	conf := bc.DefaultConfig(life)
	conf.CleanWindow = 0 // no background sweeps; expiry is handled here
	conf.Verbose = false
	// bigcache preallocates MaxEntriesInWindow*MaxEntrySize
	// bytes up front; the library defaults reserve ~300MB.
	conf.Shards = 64
	conf.MaxEntriesInWindow = 10000
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	items, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Local{
		items:     items,
		sets:      make(map[string]map[string]struct{}),
		deadlines: make(map[string]time.Time),
		now:       time.Now,
	}, nil
}

// expireLocked drops key if its deadline passed. Callers hold s.mu.
func (s *Local) expireLocked(key string) {
	d, ok := s.deadlines[key]
	if !ok || s.now().Before(d) {
		return
	}
	delete(s.deadlines, key)
	delete(s.sets, key)
	_ = s.items.Delete(key)
}

func (s *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	s.expireLocked(key)
	return s.getLocked(key)
}

func (s *Local) getLocked(key string) ([]byte, bool, error) {
	b, err := s.items.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Local) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		s.expireLocked(k)
		b, ok, err := s.getLocked(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = b
		}
	}
	return out, nil
}

func (s *Local) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	// SET replaces any previous value and clears its TTL, as in redis
	delete(s.deadlines, key)
	delete(s.sets, key)
	return s.items.Set(key, value)
}

func (s *Local) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(s.deadlines, k)
		delete(s.sets, k)
		if err := s.items.Delete(k); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

func (s *Local) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.expireLocked(key)
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *Local) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.expireLocked(key)
	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		// redis drops empty sets together with their TTL
		delete(s.sets, key)
		delete(s.deadlines, key)
	}
	return nil
}

func (s *Local) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.expireLocked(key)
	set := s.sets[key]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, nil
}

func (s *Local) Expire(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.expireLocked(key)
	if _, ok := s.sets[key]; !ok {
		if _, ok, _ := s.getLocked(key); !ok {
			return nil // like redis: EXPIRE on a missing key does nothing
		}
	}
	s.deadlines[key] = s.now().Add(ttl)
	return nil
}

// TTL reports the remaining lifetime of key; 0 when it has none.
func (s *Local) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deadlines[key]
	if !ok {
		return 0
	}
	return d.Sub(s.now())
}

func (s *Local) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.sets = nil
	s.deadlines = nil
	return s.items.Close()
}
