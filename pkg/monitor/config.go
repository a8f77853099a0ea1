package monitor

import "time"

// Config holds the env settings of the monitor. It is off unless MONITOR_ENABLED is set.
type Config struct {
	Enabled         bool          `env:"MONITOR_ENABLED" envDefault:"false"`
	Addr            string        `env:"MONITOR_ADDR" envDefault:"127.0.0.1:9464"`
	ReadTimeout     time.Duration `env:"MONITOR_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"MONITOR_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"MONITOR_SHUTDOWN_TIMEOUT" envDefault:"2s"`
}

// NewFromConfig creates a Server from cfg. Zero values keep the package defaults;
// extra options are applied last.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	configOpts := make([]Option, 0, 4+len(opts))

	if cfg.Addr != "" {
		configOpts = append(configOpts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 || cfg.WriteTimeout > 0 {
		def := defaultConfig()
		read, write := def.readTimeout, def.writeTimeout
		if cfg.ReadTimeout > 0 {
			read = cfg.ReadTimeout
		}
		if cfg.WriteTimeout > 0 {
			write = cfg.WriteTimeout
		}
		configOpts = append(configOpts, WithScrapeTimeouts(read, write))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}

	return New(append(configOpts, opts...)...)
}
