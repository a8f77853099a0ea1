package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/looplab/fsm"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
)

const defaultFeedBuffer = 16

// Machine drives one object's states: it performs transitions, dispatches
// per-tick callbacks and publishes change events.
//
// A Machine is not safe for concurrent use. Ticks and transitions are expected
// on the host's single game-loop goroutine. Only the Registry and the change
// feed returned by Subscribe may be touched from other goroutines.
type Machine struct {
	name           string
	states         []*State
	globals        []*GlobalCallback
	mask           Phase
	exitOnTeardown bool
	reentrancy     Reentrancy

	current  *State
	incoming *State
	cached   *State

	transitioning bool
	queue         []queuedTransition

	listeners     []*listenerEntry
	errorHandlers []func(error)
	feed          *changeFeed
	feedBuffer    int

	logger    *slog.Logger
	registry  *Registry
	lifecycle *fsm.FSM
}

type queuedTransition struct {
	ctx context.Context
	run func(ctx context.Context)
}

type listenerEntry struct {
	fn Listener
}

func (m *Machine) Name() string { return m.name }

// Current returns the active state, or nil before the first entry or after entering an unknown name.
func (m *Machine) Current() *State { return m.current }

// Incoming returns the state being transitioned into. It is only set while a transition runs.
func (m *Machine) Incoming() *State { return m.incoming }

// Cached returns the state held aside by CacheState, or nil.
func (m *Machine) Cached() *State { return m.cached }

// States returns a copy of the available states in configured order.
func (m *Machine) States() []*State {
	out := make([]*State, len(m.states))
	copy(out, m.states)
	return out
}

func (m *Machine) GlobalCallbacks() []*GlobalCallback {
	out := make([]*GlobalCallback, len(m.globals))
	copy(out, m.globals)
	return out
}

func (m *Machine) DispatchMask() Phase    { return m.mask }
func (m *Machine) ExitOnTeardown() bool   { return m.exitOnTeardown }
func (m *Machine) Reentrancy() Reentrancy { return m.reentrancy }

// Transitioning reports whether a transition is currently running.
func (m *Machine) Transitioning() bool { return m.transitioning }

// State returns the first available state with the given name.
func (m *Machine) State(name string) (*State, bool) {
	if i := m.indexOfName(name); i >= 0 {
		return m.states[i], true
	}
	return nil, false
}

// CacheState remembers the current state for a later resume. A nil current state clears the cache.
func (m *Machine) CacheState() {
	m.cached = m.current
}

// ResumeCachedState swaps back to the cached state without running its Enter callbacks.
// With invokeExit the Exit callbacks of the state being left fire first.
// Returns ErrNoCachedState when nothing is cached. The target is the state cached
// at call time, even when the request is queued behind a running transition.
func (m *Machine) ResumeCachedState(ctx context.Context, invokeExit bool) error {
	target := m.cached
	if target == nil {
		return ErrNoCachedState
	}
	return m.run(ctx, func(ctx context.Context) {
		evt := m.newEvent(ReasonResumeCachedState, m.current, target)

		m.incoming = target
		if invokeExit && m.current != nil {
			m.current.dispatch(ctx, PhaseExit, m.reportFailure(ctx))
		}
		m.current = target
		m.releaseCached(target)
		m.incoming = nil

		m.emit(ctx, evt)
	})
}

// ReinitializeCachedState enters the cached state through a full transition,
// Enter callbacks included, then clears the cache.
// Returns ErrNoCachedState when nothing is cached. Like ResumeCachedState, the
// target is fixed at call time.
func (m *Machine) ReinitializeCachedState(ctx context.Context) error {
	cached := m.cached
	if cached == nil {
		return ErrNoCachedState
	}
	return m.run(ctx, func(ctx context.Context) {
		target, _ := m.State(cached.name)
		m.setState(ctx, target, m.newEvent(ReasonEnterState, m.current, target))
		m.releaseCached(cached)
	})
}

// releaseCached clears the cache unless a callback cached another state meanwhile.
func (m *Machine) releaseCached(s *State) {
	if m.cached == s {
		m.cached = nil
	}
}

// EnterInitialState transitions to the first available state.
func (m *Machine) EnterInitialState(ctx context.Context) error {
	if len(m.states) == 0 {
		return ErrNoStates
	}
	return m.run(ctx, func(ctx context.Context) {
		target := m.states[0]
		m.setState(ctx, target, m.newEvent(ReasonEnterState, m.current, target))
	})
}

// EnterState transitions to the first available state called name.
// An unknown name is not an error: the current state is exited and left empty,
// and the change event reports EmptyStateName as inbound.
func (m *Machine) EnterState(ctx context.Context, name string) error {
	return m.run(ctx, func(ctx context.Context) {
		target, _ := m.State(name)
		m.setState(ctx, target, m.newEvent(ReasonEnterState, m.current, target))
	})
}

// NextState advances to the following available state, wrapping to the first.
// Does nothing when the current state is empty or not among the available states.
func (m *Machine) NextState(ctx context.Context) error {
	return m.step(ctx, ReasonNextState, 1)
}

// PreviousState moves to the preceding available state, wrapping to the last.
// Does nothing when the current state is empty or not among the available states.
func (m *Machine) PreviousState(ctx context.Context) error {
	return m.step(ctx, ReasonPreviousState, -1)
}

func (m *Machine) step(ctx context.Context, reason Reason, delta int) error {
	return m.run(ctx, func(ctx context.Context) {
		idx := m.indexOf(m.current)
		if idx < 0 {
			return
		}
		n := len(m.states)
		target := m.states[((idx+delta)%n+n)%n]
		m.setState(ctx, target, m.newEvent(reason, m.current, target))
	})
}

// Update dispatches the variable-rate tick. Call it once per host frame.
// Ticks are ignored until Start and after Destroy, even when a state was
// entered directly with EnterState or EnterInitialState.
func (m *Machine) Update(ctx context.Context) {
	m.tick(ctx, PhaseUpdate)
}

// FixedUpdate dispatches the fixed-rate tick. Call it once per host fixed step.
// Like Update, it is a no-op unless the machine has been started and not destroyed.
func (m *Machine) FixedUpdate(ctx context.Context) {
	m.tick(ctx, PhaseFixedUpdate)
}

func (m *Machine) tick(ctx context.Context, phase Phase) {
	if !m.lifecycle.Is(LifecycleActive) || !m.mask.Has(phase) {
		return
	}
	if m.current != nil {
		m.current.dispatch(ctx, phase, m.reportFailure(ctx))
	}
	m.dispatchGlobals(ctx, phase, m.current)
}

// SetCallbackActive sets the gate of the callback with the given ID, searching
// available states in order and then global callbacks. Reports whether it was found.
func (m *Machine) SetCallbackActive(id string, active bool) bool {
	for _, s := range m.states {
		if cb, ok := s.Callback(id); ok {
			cb.SetActive(active)
			return true
		}
	}
	for _, g := range m.globals {
		if g.id == id {
			g.SetActive(active)
			return true
		}
	}
	return false
}

func (m *Machine) ActivateCallback(id string) bool   { return m.SetCallbackActive(id, true) }
func (m *Machine) DeactivateCallback(id string) bool { return m.SetCallbackActive(id, false) }

// CallbackPath addresses callbacks as "State>Callback" or "State>Callback>TRUE".
type CallbackPath struct {
	State    string
	Callback string
	Active   bool
}

// ParseCallbackPath parses a toggle path. The optional third segment activates
// the callback when it is "T" or "TRUE" in any case; otherwise the callback is deactivated.
func ParseCallbackPath(path string) (CallbackPath, error) {
	parts := strings.Split(path, ">")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return CallbackPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	p := CallbackPath{State: parts[0], Callback: parts[1]}
	if len(parts) == 3 {
		flag := strings.TrimSpace(parts[2])
		p.Active = strings.EqualFold(flag, "T") || strings.EqualFold(flag, "TRUE")
	}
	return p, nil
}

// SetCallbackActiveByPath toggles every callback with the path's name in the
// first state with the path's state name. Malformed or unmatched paths are ignored.
// Reports whether any callback was toggled.
func (m *Machine) SetCallbackActiveByPath(path string) bool {
	p, err := ParseCallbackPath(path)
	if err != nil {
		m.logger.Debug("ignoring callback path", logger.Machine(m.name), logger.Error(err))
		return false
	}
	s, ok := m.State(p.State)
	if !ok {
		return false
	}
	found := false
	for _, cb := range s.callbacks {
		if cb.name == p.Callback {
			cb.SetActive(p.Active)
			found = true
		}
	}
	return found
}

// OnStateChange adds a synchronous listener and returns a function that removes it.
func (m *Machine) OnStateChange(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	entry := &listenerEntry{fn: l}
	m.listeners = append(m.listeners, entry)
	return func() {
		for i, e := range m.listeners {
			if e == entry {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Subscribe returns a buffered channel of change events, closed when ctx ends or the machine is destroyed.
// Events are dropped for a reader that falls behind by more than the buffer.
func (m *Machine) Subscribe(ctx context.Context) <-chan StateChangeEvent {
	return m.feed.subscribe(ctx)
}

// Log writes a diagnostic message tagged with the machine name.
func (m *Machine) Log(ctx context.Context, msg string, args ...any) {
	m.logger.InfoContext(ctx, msg, append([]any{logger.Machine(m.name)}, args...)...)
}

// run executes a transition or applies the reentrancy policy when one is already running.
func (m *Machine) run(ctx context.Context, op func(ctx context.Context)) error {
	if m.destroyed() {
		return ErrMachineDestroyed
	}
	if m.transitioning {
		if m.reentrancy == ReentrancyReject {
			return ErrReentrantTransition
		}
		m.queue = append(m.queue, queuedTransition{ctx: ctx, run: op})
		return nil
	}

	m.transitioning = true
	defer func() {
		m.transitioning = false
		m.queue = nil
	}()

	op(ctx)
	for len(m.queue) > 0 && !m.destroyed() {
		next := m.queue[0]
		m.queue = m.queue[1:]
		next.run(next.ctx)
	}
	return nil
}

// setState exits the outgoing state, swaps in target (possibly nil), enters it and emits evt.
// Global exit callbacks fire before the state's own; the state's own enter callbacks fire before globals.
func (m *Machine) setState(ctx context.Context, target *State, evt StateChangeEvent) {
	m.incoming = target
	report := m.reportFailure(ctx)

	if m.current != nil && m.mask.Has(PhaseExit) {
		m.dispatchGlobals(ctx, PhaseExit, m.current)
		m.current.dispatch(ctx, PhaseExit, report)
	}

	m.current = m.incoming

	if m.current != nil {
		if m.mask.Has(PhaseEnter) {
			m.current.dispatch(ctx, PhaseEnter, report)
		}
		m.dispatchGlobals(ctx, PhaseEnter, m.current)
	}

	m.incoming = nil
	m.emit(ctx, evt)
}

func (m *Machine) dispatchGlobals(ctx context.Context, phase Phase, s *State) {
	for _, g := range m.globals {
		if !g.Armed(phase) || g.Ignores(s) {
			continue
		}
		if err := g.Invoke(ctx); err != nil {
			m.reportFailure(ctx)(&CallbackError{
				State:      stateName(s),
				Callback:   g.name,
				CallbackID: g.id,
				Phase:      phase,
				Global:     true,
				Err:        err,
			})
		}
	}
}

func (m *Machine) newEvent(reason Reason, from, to *State) StateChangeEvent {
	return StateChangeEvent{
		Machine:  m.name,
		Reason:   reason,
		Outbound: stateName(from),
		Inbound:  stateName(to),
	}
}

func (m *Machine) emit(ctx context.Context, evt StateChangeEvent) {
	m.logger.DebugContext(ctx, "state changed",
		logger.Machine(m.name),
		logger.Reason(evt.Reason.String()),
		logger.Transition(evt.Outbound, evt.Inbound),
	)

	listeners := make([]*listenerEntry, len(m.listeners))
	copy(listeners, m.listeners)
	for _, l := range listeners {
		m.notify(ctx, l.fn, evt)
	}

	if dropped := m.feed.publish(evt); dropped > 0 {
		m.logger.WarnContext(ctx, "change feed subscribers fell behind",
			logger.Machine(m.name),
			slog.Int("dropped", dropped),
		)
	}
}

func (m *Machine) notify(ctx context.Context, l Listener, evt StateChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "state change listener panicked",
				logger.Machine(m.name),
				logger.Error(fmt.Errorf("%w: %v", ErrListenerPanic, r)),
			)
		}
	}()
	l(ctx, evt)
}

func (m *Machine) reportFailure(ctx context.Context) func(*CallbackError) {
	return func(err *CallbackError) {
		err.Machine = m.name
		m.logger.ErrorContext(ctx, "callback failed",
			logger.Machine(m.name),
			logger.State(err.State),
			logger.Callback(err.Callback),
			logger.Phase(err.Phase.String()),
			logger.Error(err.Err),
		)
		for _, h := range m.errorHandlers {
			h(err)
		}
	}
}

// indexOf finds s by name. Duplicate names resolve to the first match.
func (m *Machine) indexOf(s *State) int {
	if s == nil {
		return -1
	}
	return m.indexOfName(s.name)
}

func (m *Machine) indexOfName(name string) int {
	for i, s := range m.states {
		if s.name == name {
			return i
		}
	}
	return -1
}
