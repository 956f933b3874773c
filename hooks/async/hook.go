// Package asynchook moves hook delivery off the caller's goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{OrphanEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	col, _ := collcache.New(collcache.Options[Widget]{
//	    Store: st,
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the queue is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/collcache"
)

type Hooks struct {
	inner   collcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Uint64
}

var _ collcache.Hooks = (*Hooks)(nil)

func New(inner collcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to be delivered.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns the number of events discarded because the queue was
// full or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) FallbackInvoked(k string, n int, took time.Duration) {
	h.try(func() { h.inner.FallbackInvoked(k, n, took) })
}
func (h *Hooks) OrphanedMember(k, id string) { h.try(func() { h.inner.OrphanedMember(k, id) }) }
func (h *Hooks) StoreRetry(op string, attempt uint, err error, next time.Duration) {
	h.try(func() { h.inner.StoreRetry(op, attempt, err, next) })
}
func (h *Hooks) PartialFailure(k string, op collcache.Operation, p collcache.Phase, err error) {
	h.try(func() { h.inner.PartialFailure(k, op, p, err) })
}
