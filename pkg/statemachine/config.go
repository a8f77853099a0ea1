package statemachine

import (
	"fmt"
	"strings"
)

// Reentrancy decides what happens when a callback requests a transition
// while another transition is still running.
type Reentrancy uint8

const (
	// ReentrancyQueue runs nested requests in FIFO order after the running transition completes.
	ReentrancyQueue Reentrancy = iota
	// ReentrancyReject refuses nested requests with ErrReentrantTransition.
	ReentrancyReject
)

func (r Reentrancy) String() string {
	switch r {
	case ReentrancyQueue:
		return "queue"
	case ReentrancyReject:
		return "reject"
	default:
		return fmt.Sprintf("reentrancy(%d)", uint8(r))
	}
}

func (r Reentrancy) valid() bool {
	return r == ReentrancyQueue || r == ReentrancyReject
}

func (r *Reentrancy) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "queue":
		*r = ReentrancyQueue
	case "reject":
		*r = ReentrancyReject
	default:
		return fmt.Errorf("%w: %q", ErrInvalidReentrancy, text)
	}
	return nil
}

// Config holds machine defaults that hosts usually keep in the environment.
// Load it with config.Load and apply it with WithConfig. A dispatch mask of
// "none" reads as unset there; switch dispatch off with WithDispatchMask instead.
type Config struct {
	DispatchPhases Phase      `env:"FSM_DISPATCH_PHASES" envDefault:"all"`
	ExitOnTeardown bool       `env:"FSM_EXIT_ON_TEARDOWN" envDefault:"false"`
	Reentrancy     Reentrancy `env:"FSM_REENTRANCY" envDefault:"queue"`
	FeedBuffer     int        `env:"FSM_FEED_BUFFER" envDefault:"16"`
}

// DefaultConfig matches the envDefault tags of Config.
func DefaultConfig() Config {
	return Config{
		DispatchPhases: PhaseAll,
		Reentrancy:     ReentrancyQueue,
		FeedBuffer:     defaultFeedBuffer,
	}
}
