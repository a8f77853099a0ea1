package statemachine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Action is a single listener bound to a callback.
type Action func(ctx context.Context) error

// CallbackOption configures a Callback during construction.
type CallbackOption func(*Callback)

// Callback is a named unit of behavior armed for a set of phases.
// Names need not be unique; the ID is the stable lookup key.
type Callback struct {
	id         string
	name       string
	conditions Phase
	active     atomic.Bool
	listeners  []Action
}

// NewCallback creates an active callback with a freshly generated ID.
func NewCallback(name string, conditions Phase, opts ...CallbackOption) *Callback {
	cb := &Callback{
		id:         uuid.NewString(),
		name:       name,
		conditions: conditions,
	}
	cb.active.Store(true)

	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// WithCallbackID overrides the generated ID, e.g. when restoring an authored definition.
// Empty IDs are ignored.
func WithCallbackID(id string) CallbackOption {
	return func(cb *Callback) {
		if id != "" {
			cb.id = id
		}
	}
}

// WithListeners appends listeners in the given order. Nil listeners are skipped.
func WithListeners(actions ...Action) CallbackOption {
	return func(cb *Callback) {
		for _, a := range actions {
			if a != nil {
				cb.listeners = append(cb.listeners, a)
			}
		}
	}
}

// Inactive creates the callback with its gate closed.
func Inactive() CallbackOption {
	return func(cb *Callback) {
		cb.active.Store(false)
	}
}

func (c *Callback) ID() string         { return c.id }
func (c *Callback) Name() string       { return c.name }
func (c *Callback) Conditions() Phase  { return c.conditions }
func (c *Callback) Active() bool       { return c.active.Load() }
func (c *Callback) SetActive(on bool)  { c.active.Store(on) }
func (c *Callback) ListenerCount() int { return len(c.listeners) }

// AddListener appends a listener. Nil is ignored.
func (c *Callback) AddListener(a Action) {
	if a != nil {
		c.listeners = append(c.listeners, a)
	}
}

// Armed reports whether the callback is active and its conditions contain phase.
func (c *Callback) Armed(phase Phase) bool {
	return c.Active() && c.conditions.Has(phase)
}

// Invoke runs every listener in insertion order regardless of the gate.
// A listener that fails or panics does not stop the rest; failures are joined.
func (c *Callback) Invoke(ctx context.Context) error {
	listeners := make([]Action, len(c.listeners))
	copy(listeners, c.listeners)

	var errs []error
	for i, l := range listeners {
		if err := callListener(ctx, l); err != nil {
			errs = append(errs, fmt.Errorf("listener %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func callListener(ctx context.Context, l Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return l(ctx)
}

// GlobalCallback is a callback evaluated for whatever state is current,
// except states listed in its ignore set.
type GlobalCallback struct {
	*Callback
	ignored map[string]struct{}
}

// NewGlobalCallback creates a global callback that stays silent while any of ignoredStates is current.
func NewGlobalCallback(name string, conditions Phase, ignoredStates []string, opts ...CallbackOption) *GlobalCallback {
	g := &GlobalCallback{
		Callback: NewCallback(name, conditions, opts...),
		ignored:  make(map[string]struct{}, len(ignoredStates)),
	}
	for _, s := range ignoredStates {
		g.ignored[s] = struct{}{}
	}
	return g
}

// Ignores reports whether the callback is suppressed while s is current.
// A nil state has no name, so it is never ignored.
func (g *GlobalCallback) Ignores(s *State) bool {
	if s == nil {
		return false
	}
	return g.IgnoresName(s.name)
}

func (g *GlobalCallback) IgnoresName(name string) bool {
	_, ok := g.ignored[name]
	return ok
}

// IgnoredStates returns the ignore set in no particular order.
func (g *GlobalCallback) IgnoredStates() []string {
	out := make([]string, 0, len(g.ignored))
	for name := range g.ignored {
		out = append(out, name)
	}
	return out
}
