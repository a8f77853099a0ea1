package monitor

import "errors"

var (
	ErrStart          = errors.New("monitor: failed to start server")
	ErrShutdown       = errors.New("monitor: failed to shut down server gracefully")
	ErrAlreadyRunning = errors.New("monitor: server already running")
)
