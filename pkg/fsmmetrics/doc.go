// Package fsmmetrics exposes state machine activity as Prometheus metrics.
//
//	reg := statemachine.NewRegistry()
//	metrics := fsmmetrics.New(reg)
//	prometheus.MustRegister(metrics)
//
//	m, err := statemachine.New("Player", append(metrics.Options(),
//	    statemachine.WithStates(idle, run),
//	    statemachine.WithRegistry(reg),
//	)...)
//
// Exported series:
//   - fsmkit_state_changes_total{machine, reason}
//   - fsmkit_callback_failures_total{machine, phase, kind}
//   - fsmkit_machines_live (only when built with a registry)
package fsmmetrics
