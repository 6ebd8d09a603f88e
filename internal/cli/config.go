// ============================================================================
// Periodic Engine CLI - Configuration
// ============================================================================
//
// Package: internal/cli
// File: config.go
// Purpose: YAML configuration schema for the `run` command, mirroring
//          the teacher's Config struct shape (nested per-concern
//          blocks decoded with yaml.v3 struct tags)
//
// ============================================================================

package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskConfig describes one callable to register against the worker.
// Callable must name an entry in the builtin catalog (see catalog.go);
// configuration cannot carry an arbitrary Go function.
type TaskConfig struct {
	Name           string `yaml:"name"`
	Callable       string `yaml:"callable"`
	SpacingMs      int64  `yaml:"spacing_ms"`
	RunImmediately bool   `yaml:"run_immediately"`
	Enabled        bool   `yaml:"enabled"`
}

// Config is the complete `run` configuration.
type Config struct {
	Executor struct {
		Kind    string `yaml:"kind"` // synchronous, green, threadpool, processpool
		Workers int    `yaml:"workers"`

		ProcessPool struct {
			BinaryPath string   `yaml:"binary_path"`
			Args       []string `yaml:"args"`
		} `yaml:"process_pool"`
	} `yaml:"executor"`

	Strategy string `yaml:"strategy"`
	Jitter   struct {
		MaxPercent float64 `yaml:"max_percent"`
	} `yaml:"jitter"`

	Tasks []TaskConfig `yaml:"tasks"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	RPC struct {
		Enabled bool   `yaml:"enabled"`
		Address string `yaml:"address"`
	} `yaml:"rpc"`

	RunLog struct {
		Path            string `yaml:"path"`
		BufferSize      int    `yaml:"buffer_size"`
		FlushIntervalMs int    `yaml:"flush_interval_ms"`
	} `yaml:"runlog"`

	StatSnapshot struct {
		Path            string `yaml:"path"`
		IntervalSeconds int    `yaml:"interval_seconds"`
	} `yaml:"stat_snapshot"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.Executor.Kind == "" {
		cfg.Executor.Kind = "synchronous"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "last_started"
	}
	if cfg.RunLog.FlushIntervalMs == 0 {
		cfg.RunLog.FlushIntervalMs = 500
	}
	if cfg.RunLog.BufferSize == 0 {
		cfg.RunLog.BufferSize = 64
	}
	if cfg.StatSnapshot.IntervalSeconds == 0 {
		cfg.StatSnapshot.IntervalSeconds = 30
	}

	return &cfg, nil
}

func (t TaskConfig) spacing() time.Duration {
	return time.Duration(t.SpacingMs) * time.Millisecond
}
