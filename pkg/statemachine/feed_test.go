package statemachine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func receive(t *testing.T, ch <-chan statemachine.StateChangeEvent) (statemachine.StateChangeEvent, bool) {
	t.Helper()
	select {
	case evt, ok := <-ch:
		return evt, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change feed")
		return statemachine.StateChangeEvent{}, false
	}
}

func TestMachine_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("delivers events in order", func(t *testing.T) {
		t.Parallel()
		var j journal
		m := newJournaledMachine(&j, threeStates)
		ctx := context.Background()

		ch := m.Subscribe(ctx)
		require.NoError(t, m.Start(ctx))
		require.NoError(t, m.NextState(ctx))

		evt, ok := receive(t, ch)
		require.True(t, ok)
		assert.Equal(t, "Idle", evt.Inbound)

		evt, ok = receive(t, ch)
		require.True(t, ok)
		assert.Equal(t, statemachine.ReasonNextState, evt.Reason)
		assert.Equal(t, "Run", evt.Inbound)
	})

	t.Run("closes when context is cancelled", func(t *testing.T) {
		t.Parallel()
		var j journal
		m := newJournaledMachine(&j, threeStates)

		ctx, cancel := context.WithCancel(context.Background())
		ch := m.Subscribe(ctx)
		cancel()

		_, ok := receive(t, ch)
		assert.False(t, ok)
		assert.NoError(t, m.EnterInitialState(context.Background()))
	})

	t.Run("closes on destroy", func(t *testing.T) {
		t.Parallel()
		var j journal
		m := newJournaledMachine(&j, threeStates)
		ctx := context.Background()

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		ch := m.Subscribe(subCtx)
		require.NoError(t, m.Destroy(ctx))

		_, ok := receive(t, ch)
		assert.False(t, ok)

		late := m.Subscribe(ctx)
		_, ok = receive(t, late)
		assert.False(t, ok, "subscribing after destroy yields a closed channel")
	})

	t.Run("slow readers miss events instead of blocking", func(t *testing.T) {
		t.Parallel()
		var j journal
		m := newJournaledMachine(&j, threeStates, statemachine.WithFeedBuffer(1))
		ctx := context.Background()

		ch := m.Subscribe(ctx)
		require.NoError(t, m.EnterInitialState(ctx))
		require.NoError(t, m.NextState(ctx))
		require.NoError(t, m.NextState(ctx))
		assert.Equal(t, "Jump", m.Current().Name())

		evt, ok := receive(t, ch)
		require.True(t, ok)
		assert.Equal(t, "Idle", evt.Inbound)

		require.NoError(t, m.NextState(ctx))
		evt, ok = receive(t, ch)
		require.True(t, ok)
		assert.Equal(t, "Idle", evt.Inbound)
		assert.Equal(t, "Jump", evt.Outbound)
	})
}
