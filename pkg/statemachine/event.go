package statemachine

import "context"

// EmptyStateName stands in for "no state" in change events.
const EmptyStateName = "<empty>"

// Reason tells which operation produced a state change.
type Reason uint8

const (
	ReasonEnterState Reason = iota
	ReasonNextState
	ReasonPreviousState
	ReasonResumeCachedState
)

func (r Reason) String() string {
	switch r {
	case ReasonEnterState:
		return "enter_state"
	case ReasonNextState:
		return "next_state"
	case ReasonPreviousState:
		return "previous_state"
	case ReasonResumeCachedState:
		return "resume_cached_state"
	default:
		return "unknown"
	}
}

// StateChangeEvent describes a completed transition.
// Outbound and Inbound are captured when the transition is requested, before
// any callback runs, so a callback that changes state again does not alter them.
type StateChangeEvent struct {
	Machine  string
	Reason   Reason
	Outbound string
	Inbound  string
}

// Listener receives change events synchronously, in subscription order.
type Listener func(ctx context.Context, evt StateChangeEvent)
