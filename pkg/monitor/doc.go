// Package monitor serves a small read-only HTTP surface next to a running
// game loop: liveness, Prometheus metrics and the last known state of every
// registered machine.
//
// Machines are single-threaded, so the HTTP side never touches them beyond
// their immutable name and lifecycle. State comes from a Tracker fed by change
// events:
//
//	reg := statemachine.NewRegistry()
//	tracker := monitor.NewTracker()
//
//	m := statemachine.MustNew("Player",
//	    statemachine.WithStates(idle, run),
//	    statemachine.WithRegistry(reg),
//	    statemachine.WithListener(tracker.Observe),
//	)
//
//	srv := monitor.New(monitor.WithAddr(":9464"))
//	go srv.Run(ctx, monitor.Router(reg, tracker, prometheus.DefaultGatherer, log))
//
// Run returns when ctx is cancelled or Shutdown is called. Listen failures are
// wrapped with ErrStart and shutdown failures with ErrShutdown.
package monitor
