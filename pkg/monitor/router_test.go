package monitor_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/fsmmetrics"
	"github.com/dmitrymomot/fsmkit/pkg/monitor"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

type fixture struct {
	reg     *statemachine.Registry
	tracker *monitor.Tracker
	handler http.Handler
	player  *statemachine.Machine
	door    *statemachine.Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := statemachine.NewRegistry()
	tracker := monitor.NewTracker()
	metrics := fsmmetrics.New(reg)

	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(metrics))

	build := func(name string, states ...string) *statemachine.Machine {
		list := make([]*statemachine.State, 0, len(states))
		for _, s := range states {
			list = append(list, statemachine.NewState(s))
		}
		opts := append(metrics.Options(),
			statemachine.WithStates(list...),
			statemachine.WithRegistry(reg),
			statemachine.WithListener(tracker.Observe),
			statemachine.WithLogger(log),
		)
		return statemachine.MustNew(name, opts...)
	}

	return &fixture{
		reg:     reg,
		tracker: tracker,
		handler: monitor.Router(reg, tracker, promReg, log),
		player:  build("Player", "Idle", "Run"),
		door:    build("Door(Clone)", "Closed", "Open"),
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestRouter_Machines(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.player.Start(ctx))
	require.NoError(t, f.player.NextState(ctx))

	rec := f.get(t, "/machines")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var statuses []monitor.MachineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)

	assert.Equal(t, monitor.MachineStatus{
		Name:      "Player",
		Lifecycle: statemachine.LifecycleActive,
		Current:   "Run",
		Previous:  "Idle",
		Reason:    "next_state",
		Changes:   2,
	}, statuses[0])

	assert.Equal(t, "Door", statuses[1].Name)
	assert.Equal(t, statemachine.LifecycleCreated, statuses[1].Lifecycle)
	assert.Equal(t, statemachine.EmptyStateName, statuses[1].Current)
	assert.Zero(t, statuses[1].Changes)
}

func TestRouter_MachineByName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.door.Start(ctx))

	rec := f.get(t, "/machines/Door")
	require.Equal(t, http.StatusOK, rec.Code)

	var st monitor.MachineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "Closed", st.Current)

	require.NoError(t, f.door.Destroy(ctx))
	rec = f.get(t, "/machines/Door")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.NoError(t, f.player.Start(context.Background()))

	rec := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fsmkit_state_changes_total{machine="Player",reason="enter_state"} 1`)
	assert.Contains(t, body, "fsmkit_machines_live 2")
}

func TestRouter_WithoutGatherer(t *testing.T) {
	t.Parallel()
	h := monitor.Router(statemachine.NewRegistry(), nil, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/machines", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTracker(t *testing.T) {
	t.Parallel()
	tr := monitor.NewTracker()

	_, ok := tr.Status("Player")
	assert.False(t, ok)

	tr.Observe(context.Background(), statemachine.StateChangeEvent{
		Machine: "Player", Reason: statemachine.ReasonEnterState,
		Outbound: statemachine.EmptyStateName, Inbound: "Idle",
	})
	tr.Observe(context.Background(), statemachine.StateChangeEvent{
		Machine: "Player", Reason: statemachine.ReasonResumeCachedState,
		Outbound: "Idle", Inbound: "Run",
	})

	st, ok := tr.Status("Player")
	require.True(t, ok)
	assert.Equal(t, "Run", st.Current)
	assert.Equal(t, "Idle", st.Previous)
	assert.Equal(t, "resume_cached_state", st.Reason)
	assert.Equal(t, uint64(2), st.Changes)

	tr.Forget("Player")
	_, ok = tr.Status("Player")
	assert.False(t, ok)
}
