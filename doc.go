// Package fsmkit is a toolkit for per-object finite-state machines in game loops.
//
// The module is organized as independent packages:
//
//   - pkg/statemachine: states, phase-gated callbacks, the transition engine,
//     host lifecycle, registry and change notifications
//   - pkg/definition: YAML machine layouts bound to named actions
//   - pkg/fsmmetrics: Prometheus collector for state changes and callback failures
//   - pkg/monitor: read-only HTTP surface with health, metrics and machine status
//   - pkg/logger: slog construction with frame-aware context attributes
//   - pkg/config: cached loading of env-tagged configuration structs
//
// cmd/fsmdemo wires all of them into a simulated game loop.
package fsmkit
