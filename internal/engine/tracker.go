package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/castock/listsync/internal/shared"
)

// OpState describes the outcome of one orchestrated operation.
type OpState int

const (
	OpIdle OpState = iota
	OpInFlight
	OpSucceeded
	OpFallenBack
	OpFailed
)

func (s OpState) String() string {
	switch s {
	case OpInFlight:
		return "in-flight"
	case OpSucceeded:
		return "succeeded"
	case OpFallenBack:
		return "fallen-back"
	case OpFailed:
		return "failed"
	default:
		return "idle"
	}
}

// OpRecord is one entry in the tracker's history.
type OpRecord struct {
	Name    string
	State   OpState
	Err     error
	Started time.Time
	Ended   time.Time
}

// OpTracker keeps a bounded history of recent operations so callers can
// report what the engine has been doing and whether the remote backend is
// degrading. Safe for concurrent use.
type OpTracker struct {
	mu      sync.Mutex
	history []OpRecord
	limit   int
}

const defaultHistoryLimit = 64

// NewOpTracker creates a tracker holding at most limit records; limit <= 0
// selects the default.
func NewOpTracker(limit int) *OpTracker {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &OpTracker{limit: limit}
}

// Begin records the start of a named operation and returns a finish func.
func (t *OpTracker) Begin(name string) func(state OpState, err error) {
	started := time.Now()
	return func(state OpState, err error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.history = append(t.history, OpRecord{
			Name:    name,
			State:   state,
			Err:     err,
			Started: started,
			Ended:   time.Now(),
		})
		if len(t.history) > t.limit {
			t.history = t.history[len(t.history)-t.limit:]
		}
	}
}

// History returns a copy of the recorded operations, oldest first.
func (t *OpTracker) History() []OpRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OpRecord, len(t.history))
	copy(out, t.history)
	return out
}

// Last returns the most recent record, or a zero OpRecord when empty.
func (t *OpTracker) Last() OpRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return OpRecord{}
	}
	return t.history[len(t.history)-1]
}

// FallbackRate reports the fraction of recorded operations that fell back
// to local-only persistence.
func (t *OpTracker) FallbackRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return 0
	}
	var fallen int
	for _, rec := range t.history {
		if rec.State == OpFallenBack {
			fallen++
		}
	}
	return float64(fallen) / float64(len(t.history))
}

// Recoverable reports whether an error from a remote write should be
// absorbed by falling back to local persistence. Authorization and
// existence failures are the caller's problem; outages are not.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, shared.ErrForbidden) || errors.Is(err, shared.ErrNotFound) {
		return false
	}
	return errors.Is(err, shared.ErrUnavailable)
}
