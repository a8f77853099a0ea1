package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoStates            = errors.New("statemachine: no available states configured")
	ErrNoCachedState       = errors.New("statemachine: no cached state to resume")
	ErrReentrantTransition = errors.New("statemachine: transition requested while another transition is running")
	ErrMachineDestroyed    = errors.New("statemachine: machine has been destroyed")
	ErrAlreadyStarted      = errors.New("statemachine: machine already started")
	ErrInvalidPhase        = errors.New("statemachine: invalid phase")
	ErrInvalidPath         = errors.New("statemachine: invalid callback path")
	ErrInvalidReentrancy   = errors.New("statemachine: invalid reentrancy policy")
	ErrListenerPanic       = errors.New("statemachine: listener panicked")
)

// CallbackError reports a callback whose listeners failed during a phase batch.
// The batch and the surrounding transition still ran to completion.
type CallbackError struct {
	Machine    string
	State      string
	Callback   string
	CallbackID string
	Phase      Phase
	Global     bool
	Err        error
}

func (e *CallbackError) Error() string {
	kind := "callback"
	if e.Global {
		kind = "global callback"
	}
	return fmt.Sprintf("%s '%s' failed in state '%s' during %s: %v", kind, e.Callback, e.State, e.Phase, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

func IsCallbackError(err error) bool {
	var e *CallbackError
	return errors.As(err, &e)
}
