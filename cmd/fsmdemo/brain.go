package main

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fsmkit/pkg/definition"
	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

const (
	idleFrames  = 20
	staminaMax  = 15
	airtime     = 8
	stunFrames  = 10
	hazardEvery = 50
)

// brain holds the gameplay counters driven by the demo definition's actions.
type brain struct {
	machine *statemachine.Machine
	log     *slog.Logger

	idle    int
	stamina int
	air     int
	stun    int
	hazard  int

	jumps     int
	stuns     int
	footsteps int
}

func newBrain(log *slog.Logger) *brain {
	return &brain{log: log}
}

func (b *brain) actions() definition.ActionRegistry {
	actions := definition.NewActionRegistry()
	actions.Register("idle.rest", b.rest)
	actions.Register("idle.wait", b.wait)
	actions.Register("run.sprint", b.sprint)
	actions.Register("run.drain", b.drain)
	actions.Register("jump.launch", b.launch)
	actions.Register("jump.fall", b.fall)
	actions.Register("stun.start", b.daze)
	actions.Register("stun.recover", b.recover)
	actions.Register("stun.clear", b.clear)
	actions.Register("hazard.tick", b.hazardTick)
	actions.Register("audio.footstep", b.footstep)
	return actions
}

func (b *brain) rest(context.Context) error {
	b.idle = 0
	return nil
}

func (b *brain) wait(ctx context.Context) error {
	b.idle++
	if b.idle < idleFrames {
		return nil
	}
	return b.machine.NextState(ctx)
}

func (b *brain) sprint(context.Context) error {
	b.stamina = staminaMax
	return nil
}

func (b *brain) drain(ctx context.Context) error {
	b.stamina--
	if b.stamina > 0 {
		return nil
	}
	return b.machine.NextState(ctx)
}

func (b *brain) launch(ctx context.Context) error {
	b.air = airtime
	b.jumps++
	b.log.DebugContext(ctx, "jump", logger.Machine(b.machine.Name()), slog.Int("jumps", b.jumps))
	return nil
}

func (b *brain) fall(ctx context.Context) error {
	b.air--
	if b.air > 0 {
		return nil
	}
	return b.machine.EnterState(ctx, "Idle")
}

func (b *brain) daze(ctx context.Context) error {
	b.stun = 0
	b.stuns++
	b.log.InfoContext(ctx, "player stunned", logger.Machine(b.machine.Name()), slog.Int("stuns", b.stuns))
	return nil
}

func (b *brain) recover(ctx context.Context) error {
	b.stun++
	if b.stun < stunFrames {
		return nil
	}
	return b.machine.ResumeCachedState(ctx, true)
}

func (b *brain) clear(context.Context) error {
	b.hazard = 0
	return nil
}

// hazardTick interrupts whatever the player is doing and resumes it after the stun.
func (b *brain) hazardTick(ctx context.Context) error {
	b.hazard++
	if b.hazard < hazardEvery {
		return nil
	}
	b.machine.CacheState()
	return b.machine.EnterState(ctx, "Stunned")
}

func (b *brain) footstep(context.Context) error {
	b.footsteps++
	return nil
}
