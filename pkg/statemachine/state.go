package statemachine

import (
	"context"
	"errors"
)

// State is an ordered list of callbacks identified by name alone.
// Two states with the same name are the same state for lookup purposes,
// whatever their callbacks.
type State struct {
	name      string
	callbacks []*Callback
}

// NewState creates a state. Callback order is invocation order within a phase.
func NewState(name string, callbacks ...*Callback) *State {
	s := &State{name: name}
	for _, cb := range callbacks {
		if cb != nil {
			s.callbacks = append(s.callbacks, cb)
		}
	}
	return s
}

func (s *State) Name() string { return s.name }

// Key is the identity used by every lookup structure.
func (s *State) Key() string { return s.name }

// Equal compares by name. Two nil states are equal.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.name == other.name
}

// Callbacks returns a copy of the callback list.
func (s *State) Callbacks() []*Callback {
	out := make([]*Callback, len(s.callbacks))
	copy(out, s.callbacks)
	return out
}

// Callback finds a callback by ID.
func (s *State) Callback(id string) (*Callback, bool) {
	for _, cb := range s.callbacks {
		if cb.id == id {
			return cb, true
		}
	}
	return nil, false
}

func (s *State) Enter(ctx context.Context) error       { return s.Dispatch(ctx, PhaseEnter) }
func (s *State) Update(ctx context.Context) error      { return s.Dispatch(ctx, PhaseUpdate) }
func (s *State) FixedUpdate(ctx context.Context) error { return s.Dispatch(ctx, PhaseFixedUpdate) }
func (s *State) Exit(ctx context.Context) error        { return s.Dispatch(ctx, PhaseExit) }

// Dispatch invokes, in order, every active callback armed for phase.
// Every armed callback runs; the returned error joins one *CallbackError per failed callback.
func (s *State) Dispatch(ctx context.Context, phase Phase) error {
	var errs []error
	s.dispatch(ctx, phase, func(err *CallbackError) {
		errs = append(errs, err)
	})
	return errors.Join(errs...)
}

func (s *State) dispatch(ctx context.Context, phase Phase, report func(*CallbackError)) {
	for _, cb := range s.callbacks {
		if !cb.Armed(phase) {
			continue
		}
		if err := cb.Invoke(ctx); err != nil {
			report(&CallbackError{
				State:      s.name,
				Callback:   cb.name,
				CallbackID: cb.id,
				Phase:      phase,
				Err:        err,
			})
		}
	}
}

// stateName returns the display name of s, or EmptyStateName for none.
func stateName(s *State) string {
	if s == nil {
		return EmptyStateName
	}
	return s.name
}
