package collcache

import "time"

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with
// hooks/async.
type Hooks interface {
	// The fallback producer ran and its records were written.
	FallbackInvoked(collectionKey string, records int, took time.Duration)

	// An index member had no item key during Read and was skipped.
	// Typical after an item write failed or an item key was removed by hand.
	OrphanedMember(collectionKey, id string)

	// A store call failed and will be retried after next.
	StoreRetry(op string, attempt uint, err error, next time.Duration)

	// A mutation failed after earlier steps were already applied. Nothing
	// is rolled back; the collection may be inconsistent until the next
	// Replace or re-initialization.
	PartialFailure(collectionKey string, op Operation, phase Phase, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FallbackInvoked(string, int, time.Duration)     {}
func (NopHooks) OrphanedMember(string, string)                  {}
func (NopHooks) StoreRetry(string, uint, error, time.Duration)  {}
func (NopHooks) PartialFailure(string, Operation, Phase, error) {}
