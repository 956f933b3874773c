// Package sloghooks reports collcache hook events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/collcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	OrphanEvery uint64
	RetryEvery  uint64
	// Optional record id redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	orphanCtr atomic.Uint64
	retryCtr  atomic.Uint64
}

var _ collcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(id string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(id)
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) FallbackInvoked(collectionKey string, records int, took time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Info("collcache.fallback_invoked",
		"collection", collectionKey,
		"records", records,
		"took", took)
}

func (h *Hooks) OrphanedMember(collectionKey, id string) {
	if h.l == nil || !sample(h.opts.OrphanEvery, &h.orphanCtr) {
		return
	}
	h.l.Warn("collcache.orphaned_member",
		"collection", collectionKey,
		"id", h.redact(id))
}

func (h *Hooks) StoreRetry(op string, attempt uint, err error, next time.Duration) {
	if h.l == nil || !sample(h.opts.RetryEvery, &h.retryCtr) {
		return
	}
	h.l.Debug("collcache.store_retry",
		"call", op,
		"attempt", attempt,
		"next", next,
		"err", err)
}

func (h *Hooks) PartialFailure(collectionKey string, op collcache.Operation, phase collcache.Phase, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("collcache.partial_failure",
		"collection", collectionKey,
		"op", op.String(),
		"phase", string(phase),
		"err", err)
}
