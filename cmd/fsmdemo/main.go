// Command fsmdemo drives a player state machine through a simulated game loop.
//
// The machine layout comes from DEMO_DEFINITION or the embedded demo.yaml.
// Each frame runs as many fixed steps as the accumulated frame time allows,
// then one variable-rate update. Set MONITOR_ENABLED=true to expose
// /metrics and /machines while the loop runs.
package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/fsmkit/pkg/config"
	"github.com/dmitrymomot/fsmkit/pkg/definition"
	"github.com/dmitrymomot/fsmkit/pkg/fsmmetrics"
	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/monitor"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

//go:embed demo.yaml
var demoDefinition []byte

type appConfig struct {
	Logger  logger.Config
	FSM     statemachine.Config
	Monitor monitor.Config

	Definition string        `env:"DEMO_DEFINITION"`
	Frames     int           `env:"DEMO_FRAMES" envDefault:"600"`
	FrameTime  time.Duration `env:"DEMO_FRAME_TIME" envDefault:"16ms"`
	FixedStep  time.Duration `env:"DEMO_FIXED_STEP" envDefault:"20ms"`
	Realtime   bool          `env:"DEMO_REALTIME" envDefault:"false"`
	Toggles    []string      `env:"DEMO_TOGGLES" envSeparator:";"`
}

type summary struct {
	Frames      uint64
	Final       string
	Changes     int
	Jumps       int
	Stuns       int
	Footsteps   int
	FixedSteps  uint64
	CallbackErr int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)

	log, err := logger.NewFromConfig(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsmdemo: %v\n", err)
		os.Exit(1)
	}
	logger.SetAsDefault(log)

	sum, err := run(ctx, cfg, log)
	if err != nil {
		log.Error("demo failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info("demo finished",
		slog.Uint64("frames", sum.Frames),
		slog.Uint64("fixed_steps", sum.FixedSteps),
		logger.State(sum.Final),
		slog.Int("changes", sum.Changes),
		slog.Int("jumps", sum.Jumps),
		slog.Int("stuns", sum.Stuns),
		slog.Int("footsteps", sum.Footsteps),
		slog.Int("callback_errors", sum.CallbackErr),
	)
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) (summary, error) {
	if cfg.FrameTime <= 0 || cfg.FixedStep <= 0 {
		return summary{}, errors.New("frame time and fixed step must be positive")
	}

	def, err := loadDefinition(ctx, cfg.Definition)
	if err != nil {
		return summary{}, err
	}

	reg := statemachine.NewRegistry()
	tracker := monitor.NewTracker()
	metrics := fsmmetrics.New(reg)
	gatherer := prometheus.NewRegistry()
	if err := gatherer.Register(metrics); err != nil {
		return summary{}, fmt.Errorf("register metrics: %w", err)
	}

	var sum summary
	b := newBrain(log)
	base := append(metrics.Options(),
		statemachine.WithConfig(cfg.FSM),
		statemachine.WithLogger(log),
		statemachine.WithRegistry(reg),
		statemachine.WithListener(tracker.Observe),
		statemachine.WithErrorHandler(func(error) { sum.CallbackErr++ }),
	)
	m, err := definition.Build(def, b.actions(), base...)
	if err != nil {
		return summary{}, fmt.Errorf("build machine: %w", err)
	}
	b.machine = m

	for _, path := range cfg.Toggles {
		if !m.SetCallbackActiveByPath(path) {
			log.WarnContext(ctx, "toggle matched no callback", logger.Machine(m.Name()), slog.String("path", path))
		}
	}

	var wg sync.WaitGroup
	changes := m.Subscribe(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for evt := range changes {
			log.InfoContext(ctx, "state change",
				logger.Machine(evt.Machine),
				logger.Reason(evt.Reason.String()),
				logger.Transition(evt.Outbound, evt.Inbound),
			)
		}
	}()

	stopMonitor := startMonitor(ctx, cfg.Monitor, log, &wg, monitor.Router(reg, tracker, gatherer, log))

	loopErr := loop(ctx, cfg, m, &sum)

	if m.Current() != nil {
		sum.Final = m.Current().Name()
	} else {
		sum.Final = statemachine.EmptyStateName
	}
	if st, ok := tracker.Status(m.Name()); ok {
		sum.Changes = int(st.Changes)
	}

	destroyErr := m.Destroy(context.WithoutCancel(ctx))
	stopMonitor()
	wg.Wait()

	sum.Jumps, sum.Stuns, sum.Footsteps = b.jumps, b.stuns, b.footsteps
	return sum, errors.Join(loopErr, destroyErr)
}

func loadDefinition(ctx context.Context, path string) (*definition.Definition, error) {
	if path == "" {
		return definition.Parse(ctx, demoDefinition)
	}
	return definition.LoadFile(ctx, path)
}

// loop runs frames until cfg.Frames is reached or ctx ends. Frames <= 0 runs until ctx ends.
func loop(ctx context.Context, cfg appConfig, m *statemachine.Machine, sum *summary) error {
	if err := m.Start(logger.WithFrame(ctx, 0)); err != nil {
		return fmt.Errorf("start machine: %w", err)
	}

	var ticker *time.Ticker
	if cfg.Realtime {
		ticker = time.NewTicker(cfg.FrameTime)
		defer ticker.Stop()
	}

	var acc time.Duration
	for frame := uint64(1); cfg.Frames <= 0 || frame <= uint64(cfg.Frames); frame++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		fctx := logger.WithFrame(ctx, frame)
		acc += cfg.FrameTime
		for acc >= cfg.FixedStep {
			m.FixedUpdate(fctx)
			acc -= cfg.FixedStep
			sum.FixedSteps++
		}
		m.Update(fctx)
		sum.Frames = frame
	}
	return nil
}

// startMonitor serves handler when enabled and returns a function that stops it.
func startMonitor(ctx context.Context, cfg monitor.Config, log *slog.Logger, wg *sync.WaitGroup, handler http.Handler) func() {
	if !cfg.Enabled {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	srv := monitor.NewFromConfig(cfg, monitor.WithLogger(log))
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, handler); err != nil {
			log.Error("monitor stopped with error", logger.Component("monitor"), logger.Error(err))
		}
	}()
	return cancel
}
