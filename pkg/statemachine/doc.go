// Package statemachine provides a per-object finite-state machine for game
// loops: named states carrying phase-gated callbacks, a driver that moves
// between them, and notifications for every change.
//
// The package revolves around four types:
//  1. Callback – a named, toggleable group of listeners armed for a Phase set
//  2. State – an ordered list of callbacks; identity is the state name
//  3. GlobalCallback – a callback evaluated for every state except an ignore set
//  4. Machine – the transition engine, tick dispatcher and event source
//
// # Phases
//
// Phase is a bitset over Enter, Update, FixedUpdate and Exit. Each callback
// has its own conditions; the machine additionally has a dispatch mask that
// switches whole phases off.
//
// # Usage
//
//	idleEnter := statemachine.NewCallback("play idle", statemachine.PhaseEnter,
//	    statemachine.WithListeners(func(ctx context.Context) error {
//	        return anim.Play("idle")
//	    }),
//	)
//
//	m := statemachine.MustNew("Player",
//	    statemachine.WithStates(
//	        statemachine.NewState("Idle", idleEnter),
//	        statemachine.NewState("Run"),
//	        statemachine.NewState("Jump"),
//	    ),
//	)
//
//	_ = m.Start(ctx)      // enters "Idle"
//	m.Update(ctx)         // once per frame
//	m.FixedUpdate(ctx)    // once per fixed step
//	_ = m.NextState(ctx)  // Idle -> Run
//
// # Transitions
//
// A transition fires the outgoing state's Exit batch (global callbacks first),
// swaps the current state, fires the incoming state's Enter batch (state
// callbacks first) and finally emits a StateChangeEvent. Entering an unknown
// name leaves the machine with no current state; NextState and PreviousState
// do nothing in that case.
//
// CacheState and ResumeCachedState implement suspend/resume: the resume swaps
// back silently, without Enter callbacks. ReinitializeCachedState instead runs
// a full transition into the cached state.
//
// # Error Handling
//
// Lookup misses are silent. A failing or panicking listener never stops the
// rest of its batch or the transition; failures are logged and handed to
// handlers registered WithErrorHandler as *CallbackError values:
//
//	if statemachine.IsCallbackError(err) { /* ... */ }
//
// # Concurrency
//
// A Machine is single-threaded: call ticks and transitions from the game loop.
// Transitions requested from a callback while a transition is running are
// queued by default (ReentrancyQueue) or refused (ReentrancyReject). The
// Registry and the Subscribe feed are safe for concurrent use.
package statemachine
