// Package config loads env-tagged structs such as statemachine.Config and
// logger.Config from the process environment and optional .env files.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - LoadEnv reads one or more .env files (default ./.env) into the environment.
//   - Load parses the environment into a struct and caches the result per type.
//   - MustLoad and MustLoadEnv panic on failure, for startup code.
//   - ResetCache and ForceReload drop cached values, mainly for tests.
//
// Usage:
//
//	var fsmCfg statemachine.Config
//	config.MustLoad(&fsmCfg)
//
//	m, err := statemachine.New("Player",
//	    statemachine.WithConfig(fsmCfg),
//	    statemachine.WithStates(states...),
//	)
//
// Custom field types work when they implement encoding.TextUnmarshaler, which
// is how statemachine.Phase and statemachine.Reentrancy are parsed.
package config
