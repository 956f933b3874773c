package collcache

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Configuration errors.
var (
	ErrMultipleIdentifierSources = errors.New("collcache: multiple identifier sources configured; set exactly one of IDFunc, IDProperty or ID")
	ErrIdentifierNotSet          = errors.New("collcache: identifier not set; configure IDFunc, IDProperty or ID, or implement Identifiable on the record type")
	ErrItemNotSet                = errors.New("collcache: item not set")
	ErrNoFallback                = errors.New("collcache: collection is empty and no fallback function set")
	ErrNoChanges                 = errors.New("collcache: no changes made to the item; set either item or a changes function")
	ErrUnexpectedOperation       = errors.New("collcache: unexpected operation type")
)

// Data errors.
var (
	ErrFallbackEmpty = errors.New("collcache: fallback function returned no records")
	ErrItemNotFound  = errors.New("collcache: item not found in collection")
)

// Phase names the step of an operation that failed.
type Phase string

const (
	PhaseReadIndex     Phase = "reading index"
	PhaseReadRecords   Phase = "reading records"
	PhaseWriteRecord   Phase = "writing record"
	PhaseDeleteRecord  Phase = "deleting record"
	PhaseUpdateIndex   Phase = "updating index"
	PhaseSetExpiration Phase = "setting expiration"
	PhaseFallback      Phase = "reading fallback source"
	PhaseEncode        Phase = "encoding record"
	PhaseDecode        Phase = "decoding record"
	PhaseChanges       Phase = "applying changes"
)

// OpError reports a store, codec or fallback failure with the operation,
// phase and storage key involved. Err is the cause.
type OpError struct {
	Op    Operation
	Phase Phase
	Key   string
	Err   error
}

func (e *OpError) Error() string {
	if e.Op == OpAdd && e.Phase == PhaseWriteRecord {
		return fmt.Sprintf("collcache: error adding record %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("collcache: %s %q: error %s: %v", e.Op, e.Key, e.Phase, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// PhaseOf returns the phase recorded in the first OpError in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Phase, true
	}
	return "", false
}

func opErr(op Operation, phase Phase, key string, err error) error {
	return &OpError{Op: op, Phase: phase, Key: key, Err: err}
}
