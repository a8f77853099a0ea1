package monitor

import (
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Option configures the monitor server.
type Option func(*config)

// WithAddr sets the host:port the monitor listens on. Port 0 picks a free port;
// the bound address is reported to start hooks. The monitor exposes machine
// state without auth, so keep it on a loopback or private interface.
func WithAddr(addr string) Option {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		panic(fmt.Sprintf("monitor: invalid listen address %q: %v", addr, err))
	}
	return func(c *config) { c.addr = addr }
}

// WithScrapeTimeouts bounds how long a scraper may take to send a request and
// to receive the response. Metrics pages of many machines need a larger write timeout.
func WithScrapeTimeouts(read, write time.Duration) Option {
	if read <= 0 || write <= 0 {
		panic(fmt.Sprintf("monitor: scrape timeouts must be positive, got read=%s write=%s", read, write))
	}
	return func(c *config) {
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// WithShutdownTimeout bounds how long in-flight scrapes may finish after Run is stopped.
// The game loop waits on this during teardown, so keep it short.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic(fmt.Sprintf("monitor: shutdown timeout must be positive, got %s", d))
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the logger. Without it, or with nil, the server logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStartHook registers a callback run with the bound address once the listener is open.
// Tests use it to learn the port picked for ":0".
func WithStartHook(h func(addr string)) Option {
	if h == nil {
		panic("monitor: start hook is nil")
	}
	return func(c *config) { c.startHooks = append(c.startHooks, h) }
}
