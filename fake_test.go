package collcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/unkn0wn-root/collcache/store"
)

// memStore is a map-backed store.Store with a settable clock and per-call
// failure injection.
type memStore struct {
	mu        sync.Mutex
	items     map[string][]byte
	sets      map[string]map[string]struct{}
	deadlines map[string]time.Time
	now       time.Time

	// fail, when set for a call name ("set", "sadd", ...), is consulted
	// before the call runs; a non-nil result fails the call.
	fail  map[string]func(key string) error
	calls map[string]int
	mgets []int // key count of every MGet
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		items:     make(map[string][]byte),
		sets:      make(map[string]map[string]struct{}),
		deadlines: make(map[string]time.Time),
		now:       time.Unix(1_700_000_000, 0),
		fail:      make(map[string]func(string) error),
		calls:     make(map[string]int),
	}
}

func (s *memStore) failOn(call string, fn func(key string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[call] = fn
}

func (s *memStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *memStore) count(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[call]
}

// enter records the call and returns an injected failure. Callers hold s.mu.
func (s *memStore) enter(call, key string) error {
	s.calls[call]++
	if fn := s.fail[call]; fn != nil {
		return fn(key)
	}
	return nil
}

func (s *memStore) expireLocked(key string) {
	if d, ok := s.deadlines[key]; ok && !s.now.Before(d) {
		delete(s.deadlines, key)
		delete(s.sets, key)
		delete(s.items, key)
	}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("get", key); err != nil {
		return nil, false, err
	}
	s.expireLocked(key)
	b, ok := s.items[key]
	return b, ok, nil
}

func (s *memStore) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("mget", ""); err != nil {
		return nil, err
	}
	s.mgets = append(s.mgets, len(keys))
	out := make([][]byte, len(keys))
	for i, k := range keys {
		s.expireLocked(k)
		out[i] = s.items[k]
	}
	return out, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("set", key); err != nil {
		return err
	}
	delete(s.deadlines, key)
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if err := s.enter("del", k); err != nil {
			return err
		}
	}
	for _, k := range keys {
		delete(s.items, k)
		delete(s.sets, k)
		delete(s.deadlines, k)
	}
	return nil
}

func (s *memStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("sadd", key); err != nil {
		return err
	}
	s.expireLocked(key)
	set := s.sets[key]
	if set == nil {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *memStore) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("srem", key); err != nil {
		return err
	}
	s.expireLocked(key)
	for _, m := range members {
		delete(s.sets[key], m)
	}
	if len(s.sets[key]) == 0 {
		delete(s.sets, key)
		delete(s.deadlines, key)
	}
	return nil
}

func (s *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("smembers", key); err != nil {
		return nil, err
	}
	s.expireLocked(key)
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("expire", key); err != nil {
		return err
	}
	if ttl > 0 {
		s.deadlines[key] = s.now.Add(ttl)
	}
	return nil
}

func (s *memStore) Close(context.Context) error { return nil }

// members returns the sorted index members without going through enter.
func (s *memStore) members(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// recHooks records every hook call.
type recHooks struct {
	mu        sync.Mutex
	fallbacks []int
	orphans   []string
	retries   []string
	partials  []Phase
}

func (h *recHooks) FallbackInvoked(_ string, n int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallbacks = append(h.fallbacks, n)
}

func (h *recHooks) OrphanedMember(_ string, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orphans = append(h.orphans, id)
}

func (h *recHooks) StoreRetry(op string, _ uint, _ error, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retries = append(h.retries, op)
}

func (h *recHooks) PartialFailure(_ string, _ Operation, phase Phase, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.partials = append(h.partials, phase)
}
