package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
executor:
  kind: threadpool
  workers: 4

strategy: last_started_jitter

tasks:
  - name: tick
    callable: heartbeat
    spacing_ms: 1000
    enabled: true
    run_immediately: true

metrics:
  enabled: true
  port: 9090

rpc:
  enabled: true
  address: "localhost:7070"

runlog:
  path: "./run.log"
  buffer_size: 32
  flush_interval_ms: 250
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := loadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "threadpool", cfg.Executor.Kind)
	assert.Equal(t, 4, cfg.Executor.Workers)
	assert.Equal(t, "last_started_jitter", cfg.Strategy)
	require.Len(t, cfg.Tasks, 1)
	assert.Equal(t, "heartbeat", cfg.Tasks[0].Callable)
	assert.Equal(t, time.Second, cfg.Tasks[0].spacing())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.True(t, cfg.RPC.Enabled)
	assert.Equal(t, 32, cfg.RunLog.BufferSize)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := loadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	invalid := "executor:\n  kind: threadpool\n  broken indentation\n    nested: true\n"
	require.NoError(t, os.WriteFile(configPath, []byte(invalid), 0644))

	cfg, err := loadConfig(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "minimal.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("tasks: []\n"), 0644))

	cfg, err := loadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "synchronous", cfg.Executor.Kind)
	assert.Equal(t, "last_started", cfg.Strategy)
	assert.Equal(t, 500, cfg.RunLog.FlushIntervalMs)
	assert.Equal(t, 64, cfg.RunLog.BufferSize)
	assert.Equal(t, 30, cfg.StatSnapshot.IntervalSeconds)
}
