package shared

import (
	"sync"

	"github.com/runoshun/taskflow/internal/domain"
)

type inflightKey struct {
	action domain.Action
	taskID int
}

// InFlight tracks outstanding service calls per task.
// It rejects a second invocation of an action that is still running for the same
// task, and numbers every call so responses that complete after a newer one for
// the same task can be discarded.
type InFlight struct {
	busy    map[inflightKey]struct{}
	next    map[int]uint64
	applied map[int]uint64
	mu      sync.Mutex
}

// NewInFlight creates an empty tracker.
func NewInFlight() *InFlight {
	return &InFlight{
		busy:    make(map[inflightKey]struct{}),
		next:    make(map[int]uint64),
		applied: make(map[int]uint64),
	}
}

// Begin marks action as running for taskID and returns its sequence number.
// It returns false if the same action is already running.
func (f *InFlight) Begin(taskID int, action domain.Action) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := inflightKey{taskID: taskID, action: action}
	if _, ok := f.busy[k]; ok {
		return 0, false
	}
	f.busy[k] = struct{}{}
	f.next[taskID]++
	return f.next[taskID], true
}

// End clears the running mark set by Begin.
func (f *InFlight) End(taskID int, action domain.Action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.busy, inflightKey{taskID: taskID, action: action})
}

// Accept reports whether the response of call seq may be applied, and records it
// as the latest applied call. Responses older than the last applied one are rejected.
func (f *InFlight) Accept(taskID int, seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq < f.applied[taskID] {
		return false
	}
	f.applied[taskID] = seq
	return true
}

// Busy reports whether action is running for taskID.
func (f *InFlight) Busy(taskID int, action domain.Action) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.busy[inflightKey{taskID: taskID, action: action}]
	return ok
}
