package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravi-parthasarathy/weaver/pkg/session"
)

func TestParseConfig(t *testing.T) {
	cfg, err := session.ParseConfig([]byte(`{"Iterations": "20", "Rollout Steps": 5, "Num Channels": "2", "Extra": true}`))
	require.NoError(t, err)
	assert.Equal(t, session.Config{GraphName: "rwtest", Iterations: 20, RolloutSteps: 5, NumChannels: 2}, cfg)
	assert.Equal(t, "(3,5)", cfg.DefaultShape("rollout"))
	assert.Equal(t, "(1,)", cfg.DefaultShape("x"))
}

func TestParseConfig_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":     `Iterations=3`,
		"not a number": `{"Iterations": "many"}`,
		"fraction":     `{"Rollout Steps": 1.5}`,
		"negative":     `{"Num Channels": -1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := session.ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := session.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, session.DefaultConfig(), cfg)
	assert.Equal(t, "(2,1)", cfg.DefaultShape("rollout"))

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Graph Name": "walker"}`), 0o644))
	cfg, err = session.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "walker", cfg.GraphName)
	assert.Equal(t, 1, cfg.Iterations)

	_, err = session.LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := session.LoadConfig(filepath.Join("..", "..", "examples", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, session.Config{GraphName: "rwtest", Iterations: 100, RolloutSteps: 20, NumChannels: 2}, cfg)
	assert.Equal(t, "(3,20)", cfg.DefaultShape("rollout"))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := session.Config{GraphName: "walker", Iterations: 50, RolloutSteps: 12, NumChannels: 4}
	require.NoError(t, session.SaveConfig(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"Rollout Steps\": 12,")

	got, err := session.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveConfig_Errors(t *testing.T) {
	err := session.SaveConfig(filepath.Join(t.TempDir(), "c.json"), session.Config{Iterations: -1})
	assert.Error(t, err)

	err = session.SaveConfig(filepath.Join(t.TempDir(), "missing", "c.json"), session.DefaultConfig())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
