// Package logger builds slog loggers for state machine hosts and provides the
// attribute helpers the rest of the module logs with.
//
// New creates a *slog.Logger from functional options (format, level, output,
// static attributes, context extractors). NewFromConfig does the same from an
// env-tagged Config, which pairs with the config package:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log, err := logger.NewFromConfig(cfg)
//
// Every logger built here injects the host frame number stored with WithFrame,
// so records written while dispatching a tick carry a "frame" attribute:
//
//	ctx = logger.WithFrame(ctx, frame)
//	machine.Update(ctx)
//
// Attribute helpers (Machine, State, Callback, Phase, Reason, Transition, Error)
// keep key names consistent across packages. Error and Errors return an empty
// attribute for nil errors, so they can be passed without a nil check.
package logger
