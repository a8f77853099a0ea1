package statemachine

import (
	"context"
	"strings"

	"github.com/looplab/fsm"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
)

// Host lifecycle of a machine, separate from the user-defined states it drives.
const (
	LifecycleCreated   = "created"
	LifecycleActive    = "active"
	LifecycleDestroyed = "destroyed"

	lifecycleEnable  = "enable"
	lifecycleDestroy = "destroy"
)

// cloneSuffix is appended by engines to the display name of instantiated copies.
const cloneSuffix = "(Clone)"

// NormalizeName strips engine-injected clone suffixes and surrounding space
// and returns the name in Unicode NFC form.
func NormalizeName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, cloneSuffix, "")
	return strings.TrimSpace(name)
}

func (m *Machine) newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		LifecycleCreated,
		fsm.Events{
			{Name: lifecycleEnable, Src: []string{LifecycleCreated}, Dst: LifecycleActive},
			{Name: lifecycleDestroy, Src: []string{LifecycleCreated, LifecycleActive}, Dst: LifecycleDestroyed},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				m.logger.DebugContext(ctx, "machine lifecycle changed",
					logger.Machine(m.name),
					logger.Lifecycle(e.Src, e.Dst),
				)
			},
		},
	)
}

// Lifecycle returns LifecycleCreated, LifecycleActive or LifecycleDestroyed.
func (m *Machine) Lifecycle() string {
	return m.lifecycle.Current()
}

func (m *Machine) destroyed() bool {
	return m.lifecycle.Is(LifecycleDestroyed)
}

// Start is the first-activation hook: it activates the machine and enters the first state.
func (m *Machine) Start(ctx context.Context) error {
	switch m.lifecycle.Current() {
	case LifecycleDestroyed:
		return ErrMachineDestroyed
	case LifecycleActive:
		return ErrAlreadyStarted
	}
	if err := m.lifecycle.Event(ctx, lifecycleEnable); err != nil {
		return err
	}
	return m.EnterInitialState(ctx)
}

// Destroy is the teardown hook. It deregisters the machine, fires the current
// state's Exit callbacks when exit-on-teardown is set, and closes the change feed.
// Transitions still queued behind a running one are discarded.
// Calling it again is a no-op.
func (m *Machine) Destroy(ctx context.Context) error {
	if m.destroyed() {
		return nil
	}
	m.queue = nil

	if m.registry != nil {
		m.registry.Deregister(m)
	}
	if m.exitOnTeardown && m.current != nil {
		m.current.dispatch(ctx, PhaseExit, m.reportFailure(ctx))
	}

	if err := m.lifecycle.Event(ctx, lifecycleDestroy); err != nil {
		return err
	}
	m.feed.close()
	return nil
}
