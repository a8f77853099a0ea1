package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/config"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

type defaultsConfig struct {
	Scene  string `env:"TEST_SCENE_DEFAULT" envDefault:"lobby"`
	Frames int    `env:"TEST_FRAMES_DEFAULT" envDefault:"60"`
}

type cachedConfig struct {
	Scene string `env:"TEST_SCENE_CACHED" envDefault:"lobby"`
}

type requiredConfig struct {
	Definition string `env:"TEST_DEFINITION_REQUIRED,required"`
}

type sceneConfig struct {
	Scene string `env:"TEST_SCENE"`
}

func unsetFSMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FSM_DISPATCH_PHASES", "FSM_EXIT_ON_TEARDOWN", "FSM_REENTRANCY", "FSM_FEED_BUFFER", "TEST_SCENE",
	} {
		require.NoError(t, os.Unsetenv(k))
	}
	config.ResetCache()
}

func TestLoad_Defaults(t *testing.T) {
	require.NoError(t, os.Unsetenv("TEST_SCENE_DEFAULT"))
	require.NoError(t, os.Unsetenv("TEST_FRAMES_DEFAULT"))

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "lobby", cfg.Scene)
	assert.Equal(t, 60, cfg.Frames)
}

func TestLoad_StateMachineConfig(t *testing.T) {
	unsetFSMEnv(t)
	t.Setenv("FSM_DISPATCH_PHASES", "update,fixed_update")
	t.Setenv("FSM_REENTRANCY", "reject")

	var cfg statemachine.Config
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, statemachine.PhaseUpdate|statemachine.PhaseFixedUpdate, cfg.DispatchPhases)
	assert.Equal(t, statemachine.ReentrancyReject, cfg.Reentrancy)
	assert.False(t, cfg.ExitOnTeardown)
	assert.Equal(t, 16, cfg.FeedBuffer)
	config.ResetCache()
}

func TestLoad_InvalidPhase(t *testing.T) {
	unsetFSMEnv(t)
	t.Setenv("FSM_DISPATCH_PHASES", "enter|teleport")

	var cfg statemachine.Config
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	config.ResetCache()
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("TEST_SCENE_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_SCENE_CACHED", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Scene)

	var reloaded cachedConfig
	require.NoError(t, config.ForceReload(&reloaded))
	assert.Equal(t, "second", reloaded.Scene)
}

func TestLoad_MissingRequired(t *testing.T) {
	require.NoError(t, os.Unsetenv("TEST_DEFINITION_REQUIRED"))

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("TEST_DEFINITION_REQUIRED", "player.yaml")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "player.yaml", cfg.Definition)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.ErrorIs(t, config.ForceReload(cfg), config.ErrNilPointer)
}

func TestMustLoad(t *testing.T) {
	require.NoError(t, os.Unsetenv("TEST_DEFINITION_REQUIRED"))
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		unsetFSMEnv(t)
		t.Cleanup(func() { unsetFSMEnv(t) })

		require.NoError(t, config.LoadEnv("testdata/.env.fsm"))

		var cfg statemachine.Config
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, statemachine.PhaseEnter|statemachine.PhaseExit, cfg.DispatchPhases)
		assert.True(t, cfg.ExitOnTeardown)
		assert.Equal(t, statemachine.ReentrancyReject, cfg.Reentrancy)
		assert.Equal(t, 4, cfg.FeedBuffer)

		var scene sceneConfig
		require.NoError(t, config.Load(&scene))
		assert.Equal(t, "arena one", scene.Scene)
	})

	t.Run("later files override", func(t *testing.T) {
		unsetFSMEnv(t)
		t.Cleanup(func() { unsetFSMEnv(t) })

		require.NoError(t, config.LoadEnv("testdata/.env.fsm", "testdata/.env.override"))

		var cfg statemachine.Config
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 64, cfg.FeedBuffer)
		assert.True(t, cfg.ExitOnTeardown)

		var scene sceneConfig
		require.NoError(t, config.Load(&scene))
		assert.Equal(t, "override", scene.Scene)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv("testdata/missing.env")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})

	t.Run("must variant", func(t *testing.T) {
		t.Cleanup(func() { unsetFSMEnv(t) })
		assert.NotPanics(t, func() { config.MustLoadEnv("testdata/.env.fsm") })
		assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
	})
}
