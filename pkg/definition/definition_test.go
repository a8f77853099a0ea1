package definition_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/definition"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func recorder(calls *[]string, name string) statemachine.Action {
	return func(context.Context) error {
		*calls = append(*calls, name)
		return nil
	}
}

func playerActions(calls *[]string) definition.ActionRegistry {
	actions := definition.NewActionRegistry()
	for _, name := range []string{"anim.idle", "anim.blink", "fx.dust", "audio.step"} {
		actions.Register(name, recorder(calls, name))
	}
	return actions
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	def, err := definition.LoadFile(context.Background(), "testdata/player.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Player(Clone)", def.Name)
	assert.Equal(t, []string{"enter", "update", "exit"}, def.Dispatch)
	require.NotNil(t, def.ExitOnTeardown)
	assert.True(t, *def.ExitOnTeardown)
	assert.Equal(t, "reject", def.Reentrancy)

	require.Len(t, def.States, 3)
	assert.Equal(t, "Idle", def.States[0].Name)
	require.Len(t, def.States[0].Callbacks, 2)
	assert.Equal(t, "idle-anim", def.States[0].Callbacks[0].ID)
	require.NotNil(t, def.States[0].Callbacks[1].Active)
	assert.False(t, *def.States[0].Callbacks[1].Active)
	assert.Empty(t, def.States[2].Callbacks)

	require.Len(t, def.Globals, 1)
	assert.Equal(t, "footsteps", def.Globals[0].Name)
	assert.Equal(t, []string{"Idle", "Jump"}, def.Globals[0].Ignore)
	assert.Equal(t, []string{"audio.step"}, def.Globals[0].Actions)
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := definition.LoadFile(context.Background(), "testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"malformed", "states: [", definition.ErrInvalidYAML},
		{"no states", "name: Empty\n", definition.ErrNoStates},
		{"unnamed state", "states:\n  - callbacks: []\n", definition.ErrMissingName},
		{"unnamed callback", "states:\n  - name: Idle\n    callbacks:\n      - conditions: [enter]\n", definition.ErrMissingName},
		{"bad condition", "states:\n  - name: Idle\n    callbacks:\n      - name: x\n        conditions: [teleport]\n", statemachine.ErrInvalidPhase},
		{"bad dispatch", "dispatch: [later]\nstates:\n  - name: Idle\n", statemachine.ErrInvalidPhase},
		{"bad reentrancy", "reentrancy: sometimes\nstates:\n  - name: Idle\n", statemachine.ErrInvalidReentrancy},
		{"unnamed global", "states:\n  - name: Idle\nglobals:\n  - conditions: [update]\n", definition.ErrMissingName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := definition.Parse(context.Background(), []byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := definition.Load(ctx, strings.NewReader("states:\n  - name: Idle\n"))
	assert.ErrorIs(t, err, definition.ErrParsingCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	def, err := definition.LoadFile(context.Background(), "testdata/player.yaml")
	require.NoError(t, err)

	var calls []string
	reg := statemachine.NewRegistry()
	m, err := definition.Build(def, playerActions(&calls),
		statemachine.WithConfig(statemachine.DefaultConfig()),
		statemachine.WithRegistry(reg),
		statemachine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	assert.Equal(t, "Player", m.Name())
	assert.Equal(t, statemachine.PhaseEnter|statemachine.PhaseUpdate|statemachine.PhaseExit, m.DispatchMask(),
		"authored dispatch overrides the host default")
	assert.True(t, m.ExitOnTeardown())
	assert.Equal(t, statemachine.ReentrancyReject, m.Reentrancy())
	assert.Equal(t, 1, reg.Len())

	idle, ok := m.State("Idle")
	require.True(t, ok)
	_, ok = idle.Callback("idle-anim")
	assert.True(t, ok)

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	m.Update(ctx)
	assert.Equal(t, []string{"anim.idle"}, calls, "blink is authored inactive")

	calls = nil
	require.True(t, m.SetCallbackActiveByPath("Idle>blink>TRUE"))
	m.Update(ctx)
	require.NoError(t, m.NextState(ctx))
	m.Update(ctx)
	assert.Equal(t, []string{"anim.blink", "fx.dust", "fx.dust", "audio.step"}, calls)

	calls = nil
	require.NoError(t, m.Destroy(ctx))
	assert.Equal(t, []string{"fx.dust", "fx.dust"}, calls, "exit on teardown")
}

func TestOptions_UnknownAction(t *testing.T) {
	t.Parallel()

	def, err := definition.Parse(context.Background(), []byte(`
states:
  - name: Idle
    callbacks:
      - name: greet
        conditions: [enter]
        actions: [say.hello]
`))
	require.NoError(t, err)

	_, err = def.Options(definition.NewActionRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, definition.ErrUnknownAction)
	assert.Contains(t, err.Error(), "say.hello")

	_, err = definition.Build(def, nil)
	assert.ErrorIs(t, err, definition.ErrUnknownAction)
}

func TestOptions_KeepsMachineDefaults(t *testing.T) {
	t.Parallel()

	def, err := definition.Parse(context.Background(), []byte("name: Door\nstates:\n  - name: Closed\n  - name: Open\n"))
	require.NoError(t, err)

	m, err := definition.Build(def, nil, statemachine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	assert.Equal(t, statemachine.PhaseAll, m.DispatchMask())
	assert.False(t, m.ExitOnTeardown())
	assert.Equal(t, statemachine.ReentrancyQueue, m.Reentrancy())
	assert.Len(t, m.States(), 2)
}

func TestActionRegistry(t *testing.T) {
	t.Parallel()

	actions := definition.NewActionRegistry()
	actions.Register("b", func(context.Context) error { return nil })
	actions.Register("a", func(context.Context) error { return nil })
	assert.Equal(t, []string{"a", "b"}, actions.Names())

	assert.Panics(t, func() { actions.Register("nil", nil) })
}
