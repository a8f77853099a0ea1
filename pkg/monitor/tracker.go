package monitor

import (
	"context"
	"sync"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// MachineStatus is the last known state of one machine as seen through its change events.
type MachineStatus struct {
	Name      string `json:"name"`
	Lifecycle string `json:"lifecycle,omitempty"`
	Current   string `json:"current"`
	Previous  string `json:"previous"`
	Reason    string `json:"reason,omitempty"`
	Changes   uint64 `json:"changes"`
}

// Tracker keeps the latest change event per machine name.
// Machines are not safe for concurrent use, so HTTP handlers read this copy
// instead of the machines themselves.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]MachineStatus
}

func NewTracker() *Tracker {
	return &Tracker{statuses: make(map[string]MachineStatus)}
}

// Observe is a statemachine.Listener. Attach it WithListener.
func (t *Tracker) Observe(_ context.Context, evt statemachine.StateChangeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.statuses[evt.Machine]
	st.Name = evt.Machine
	st.Current = evt.Inbound
	st.Previous = evt.Outbound
	st.Reason = evt.Reason.String()
	st.Changes++
	t.statuses[evt.Machine] = st
}

// Status returns the last status recorded for name.
func (t *Tracker) Status(name string) (MachineStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.statuses[name]
	return st, ok
}

// Forget drops the status recorded for name.
func (t *Tracker) Forget(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, name)
}
