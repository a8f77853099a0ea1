package statemachine

import (
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
)

// Option configures a machine during construction.
type Option func(*Machine) error

// New creates a machine: the on-create hook. It normalizes name, validates the
// configuration and joins the registry when one is supplied. The machine stays
// in LifecycleCreated until Start.
func New(name string, opts ...Option) (*Machine, error) {
	m := &Machine{
		name:       NormalizeName(name),
		mask:       PhaseAll,
		reentrancy: ReentrancyQueue,
		feedBuffer: defaultFeedBuffer,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if len(m.states) == 0 {
		return nil, ErrNoStates
	}
	m.warnDuplicateStates()

	m.feed = newChangeFeed(m.feedBuffer)
	m.lifecycle = m.newLifecycle()

	if m.registry != nil {
		m.registry.Register(m)
	}
	return m, nil
}

// MustNew is like New but panics on error, for machines built from static configuration.
func MustNew(name string, opts ...Option) *Machine {
	m, err := New(name, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine) warnDuplicateStates() {
	seen := make(map[string]struct{}, len(m.states))
	for _, s := range m.states {
		if _, dup := seen[s.name]; dup {
			m.logger.Warn("duplicate state name, lookups resolve to the first",
				logger.Machine(m.name),
				logger.State(s.name),
			)
			continue
		}
		seen[s.name] = struct{}{}
	}
}

// WithStates appends available states. Order defines next/previous sequencing.
func WithStates(states ...*State) Option {
	return func(m *Machine) error {
		for i, s := range states {
			if s == nil {
				return fmt.Errorf("state[%d] is nil", i)
			}
			m.states = append(m.states, s)
		}
		return nil
	}
}

// WithGlobalCallbacks appends callbacks evaluated alongside whatever state is current.
func WithGlobalCallbacks(callbacks ...*GlobalCallback) Option {
	return func(m *Machine) error {
		for _, g := range callbacks {
			if g != nil {
				m.globals = append(m.globals, g)
			}
		}
		return nil
	}
}

// WithDispatchMask limits which phases the machine dispatches at all.
func WithDispatchMask(p Phase) Option {
	return func(m *Machine) error {
		m.mask = p
		return nil
	}
}

// WithExitOnTeardown makes Destroy fire the current state's Exit callbacks.
func WithExitOnTeardown(on bool) Option {
	return func(m *Machine) error {
		m.exitOnTeardown = on
		return nil
	}
}

func WithReentrancy(r Reentrancy) Option {
	return func(m *Machine) error {
		if !r.valid() {
			return fmt.Errorf("%w: %d", ErrInvalidReentrancy, r)
		}
		m.reentrancy = r
		return nil
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) error {
		if l != nil {
			m.logger = l
		}
		return nil
	}
}

// WithRegistry registers the machine on creation and deregisters it on Destroy.
func WithRegistry(r *Registry) Option {
	return func(m *Machine) error {
		m.registry = r
		return nil
	}
}

// WithErrorHandler adds a handler receiving every isolated *CallbackError.
func WithErrorHandler(h func(error)) Option {
	return func(m *Machine) error {
		if h != nil {
			m.errorHandlers = append(m.errorHandlers, h)
		}
		return nil
	}
}

// WithListener subscribes a change listener before the machine can transition.
func WithListener(l Listener) Option {
	return func(m *Machine) error {
		m.OnStateChange(l)
		return nil
	}
}

// WithFeedBuffer sets the per-subscriber buffer of the channel change feed.
func WithFeedBuffer(n int) Option {
	return func(m *Machine) error {
		m.feedBuffer = n
		return nil
	}
}

// WithConfig applies dispatch mask, teardown, reentrancy and feed settings from cfg.
// Start from DefaultConfig. Zero DispatchPhases and FeedBuffer keep the machine's
// current values; use WithDispatchMask(PhaseNone) to switch dispatch off.
func WithConfig(cfg Config) Option {
	return func(m *Machine) error {
		if err := WithReentrancy(cfg.Reentrancy)(m); err != nil {
			return err
		}
		if cfg.DispatchPhases != PhaseNone {
			m.mask = cfg.DispatchPhases
		}
		m.exitOnTeardown = cfg.ExitOnTeardown
		if cfg.FeedBuffer > 0 {
			m.feedBuffer = cfg.FeedBuffer
		}
		return nil
	}
}
