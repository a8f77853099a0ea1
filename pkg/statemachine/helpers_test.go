package statemachine_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// journal records listener invocations in call order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) record(entry string) statemachine.Action {
	return func(context.Context) error {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.entries = append(j.entries, entry)
		return nil
	}
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// events collects change events delivered to a synchronous listener.
type events struct {
	list []statemachine.StateChangeEvent
}

func (e *events) listener() statemachine.Listener {
	return func(_ context.Context, evt statemachine.StateChangeEvent) {
		e.list = append(e.list, evt)
	}
}

// phaseCallbacks builds one callback per phase that records "<state>.<phase>".
func phaseCallbacks(j *journal, state string) []*statemachine.Callback {
	return []*statemachine.Callback{
		statemachine.NewCallback(state+" enter", statemachine.PhaseEnter, statemachine.WithListeners(j.record(state+".enter"))),
		statemachine.NewCallback(state+" update", statemachine.PhaseUpdate, statemachine.WithListeners(j.record(state+".update"))),
		statemachine.NewCallback(state+" fixed", statemachine.PhaseFixedUpdate, statemachine.WithListeners(j.record(state+".fixed_update"))),
		statemachine.NewCallback(state+" exit", statemachine.PhaseExit, statemachine.WithListeners(j.record(state+".exit"))),
	}
}

// newJournaledMachine builds a machine whose states record every phase.
func newJournaledMachine(j *journal, names []string, opts ...statemachine.Option) *statemachine.Machine {
	states := make([]*statemachine.State, 0, len(names))
	for _, n := range names {
		states = append(states, statemachine.NewState(n, phaseCallbacks(j, n)...))
	}
	base := []statemachine.Option{
		statemachine.WithStates(states...),
		statemachine.WithLogger(discardLogger()),
	}
	return statemachine.MustNew("Player", append(base, opts...)...)
}
