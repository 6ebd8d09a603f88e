// ============================================================================
// Periodic Engine CLI
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command line interface: `run` starts an engine
//          from a YAML config, `status` and `add` talk to a running
//          engine's control plane over gRPC
//
// Command Structure:
//   periodicengine                   # Root command
//   ├── run                          # Start the engine
//   │   └── --config, -c             # Specify config file
//   ├── status                       # Query a running engine
//   │   └── --address                # Control-plane address
//   ├── add                          # Register a task on a running engine
//   │   ├── --address
//   │   ├── --callable
//   │   ├── --spacing
//   │   └── --immediate
//   ├── --version
//   └── --help
//
// run command:
//   1. Load the YAML config
//   2. Build the executor, strategy, and worker named in it
//   3. Register its task list against the builtin callable catalog
//   4. Start the metrics HTTP server and the control-plane gRPC server
//      (if enabled)
//   5. Open the run log and the stats snapshot writer
//   6. Start the worker and block on SIGINT/SIGTERM
//   7. On signal: stop the worker, close the run log, write a final
//      snapshot
//
// ============================================================================

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/internal/executor"
	"github.com/ChuLiYu/periodic-engine/internal/metrics"
	"github.com/ChuLiYu/periodic-engine/internal/periodic"
	"github.com/ChuLiYu/periodic-engine/internal/rpc"
	"github.com/ChuLiYu/periodic-engine/internal/runlog"
	"github.com/ChuLiYu/periodic-engine/internal/statsnapshot"
	"github.com/ChuLiYu/periodic-engine/internal/strategy"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

var configFile string

// BuildCLI assembles the root command and its subcommands.
func BuildCLI(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "periodicengine",
		Short: "periodicengine: a periodic task scheduling engine",
		Long: `periodicengine runs a collection of named callables on
independent schedules, backed by a choice of in-process, thread-pool,
green, or process-isolated executors.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildStatusCommand())
	rootCmd.AddCommand(buildAddCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the periodic engine",
		Long:  "Load a config file, register its tasks, and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(configFile)
		},
	}
	return cmd
}

func resolveStrategy(cfg *Config) (strategy.Strategy, error) {
	reg := strategy.BuiltIn()
	base, err := reg.Lookup(cfg.Strategy)
	if err != nil {
		return strategy.Strategy{}, err
	}
	if cfg.Jitter.MaxPercent <= 0 {
		return base, nil
	}
	post, err := strategy.WithJitter(cfg.Jitter.MaxPercent, base.Post, strategy.NewCryptoSeededSource())
	if err != nil {
		return strategy.Strategy{}, err
	}
	return strategy.Strategy{Post: post, Initial: base.Initial}, nil
}

func buildExecutorFactory(cfg *Config, c clock.Clock) (func() executor.Executor, *executor.ProcessPool, error) {
	switch cfg.Executor.Kind {
	case "", "synchronous":
		return func() executor.Executor { return executor.NewSynchronous(false, c) }, nil, nil
	case "green":
		return func() executor.Executor {
			return executor.NewGreen(cfg.Executor.Workers, nil, c)
		}, nil, nil
	case "threadpool":
		return func() executor.Executor {
			return executor.NewThreadPool(cfg.Executor.Workers, nil, c)
		}, nil, nil
	case "processpool":
		pp, err := executor.NewProcessPool(cfg.Executor.Workers, cfg.Executor.ProcessPool.BinaryPath, cfg.Executor.ProcessPool.Args, c)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start process pool: %w", err)
		}
		return func() executor.Executor { return pp }, pp, nil
	default:
		return nil, nil, &types.ConfigError{Msg: "unknown executor kind: " + cfg.Executor.Kind}
	}
}

func runEngine(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := slog.Default()

	strat, err := resolveStrategy(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve strategy: %w", err)
	}

	c := clock.NewMonotonic()
	execFactory, pp, err := buildExecutorFactory(cfg, c)
	if err != nil {
		return err
	}

	var auditLog *runlog.Log
	if cfg.RunLog.Path != "" {
		auditLog, err = runlog.Open(cfg.RunLog.Path, cfg.RunLog.BufferSize, time.Duration(cfg.RunLog.FlushIntervalMs)*time.Millisecond)
		if err != nil {
			return fmt.Errorf("failed to open run log: %w", err)
		}
		defer auditLog.Close()
	}

	worker, err := periodic.New(periodic.Options{
		Clock:           c,
		Strategy:        strat,
		ExecutorFactory: execFactory,
		Log:             log,
		OnFailure: func(name string, kind types.Kind, spacing time.Duration, failure *types.Failure) {
			if auditLog == nil {
				return
			}
			msg := ""
			if failure != nil && failure.Err != nil {
				msg = failure.Err.Error()
			}
			if err := auditLog.Append(name, string(kind), false, 0, msg); err != nil {
				log.Warn("failed to append run log entry", "err", err)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build worker: %w", err)
	}

	catalog := buildCatalog(pp, log)
	for _, task := range cfg.Tasks {
		if !task.Enabled {
			continue
		}
		fn, ok := catalog[task.Callable]
		if !ok {
			return fmt.Errorf("task %q names unknown callable %q", task.Name, task.Callable)
		}
		spec := types.TaskSpec{
			Enabled:        true,
			Spacing:        task.spacing(),
			RunImmediately: task.RunImmediately,
		}
		if _, err := worker.Add(task.Name, spec, fn); err != nil {
			return fmt.Errorf("failed to register task %q: %w", task.Name, err)
		}
	}

	collector := metrics.NewCollector(nil)
	if cfg.Metrics.Enabled {
		go func() {
			if err := collector.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("metrics server stopped", "err", err)
			}
		}()
	}

	if cfg.RPC.Enabled {
		grpcServer, err := startControlPlane(cfg.RPC.Address, worker, catalog)
		if err != nil {
			return fmt.Errorf("failed to start control plane: %w", err)
		}
		defer grpcServer.stop()
	}

	var snapshots *statsnapshot.Manager
	if cfg.StatSnapshot.Path != "" {
		snapshots = statsnapshot.NewManager(cfg.StatSnapshot.Path)
	}
	stopReporting := make(chan struct{})
	go report(worker, collector, snapshots, time.Duration(cfg.StatSnapshot.IntervalSeconds)*time.Second, stopReporting)
	defer close(stopReporting)

	go func() {
		if err := worker.Start(true); err != nil {
			log.Error("worker stopped", "err", err)
		}
	}()

	log.Info("periodic engine started", "tasks", worker.Len(), "executor", cfg.Executor.Kind)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, stopping gracefully")
	worker.Stop()
	worker.Wait(10 * time.Second)

	if cfg.StatSnapshot.Path != "" {
		if err := snapshots.Write(statsnapshot.Collect(worker, map[string]types.ExecutorStatistics{
			cfg.Executor.Kind: worker.ExecutorStatistics(),
		})); err != nil {
			log.Warn("failed to write final stats snapshot", "err", err)
		}
	}

	log.Info("periodic engine stopped")
	return nil
}

// report periodically reconciles cumulative watcher counters into the
// Prometheus collector and the stats snapshot file. The worker exposes
// a hook for failed runs (OnFailure) but not a generic per-run event,
// so successful-run metrics are derived from the delta between polls
// rather than emitted inline.
func report(worker *periodic.Worker, collector *metrics.Collector, snapshots *statsnapshot.Manager, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := map[string][2]uint64{}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for watcher := range worker.IterWatchers() {
				name := watcher.Name()
				successes, failures := watcher.Successes(), watcher.Failures()
				prev := seen[name]
				avgElapsed, _ := watcher.AverageElapsed()
				avgWaiting, _ := watcher.AverageElapsedWaiting()

				for i := prev[0]; i < successes; i++ {
					collector.RecordRun(name, false, avgElapsed.Seconds(), avgWaiting.Seconds())
				}
				for i := prev[1]; i < failures; i++ {
					collector.RecordRun(name, true, avgElapsed.Seconds(), avgWaiting.Seconds())
				}
				seen[name] = [2]uint64{successes, failures}
			}
			collector.SetExecutorStatistics("active", worker.ExecutorStatistics())

			if snapshots != nil {
				data := statsnapshot.Collect(worker, map[string]types.ExecutorStatistics{
					"active": worker.ExecutorStatistics(),
				})
				if err := snapshots.Write(data); err != nil {
					slog.Default().Warn("failed to write stats snapshot", "err", err)
				}
			}
		}
	}
}

type grpcServerHandle struct {
	stop func()
}

func startControlPlane(address string, worker *periodic.Worker, catalog map[string]func() (any, error)) (*grpcServerHandle, error) {
	if address == "" {
		address = "localhost:7070"
	}
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	srv := rpc.NewServer()
	rpc.RegisterControlPlaneServer(srv, rpc.NewService(worker, catalog))
	go func() {
		if err := srv.Serve(lis); err != nil {
			slog.Default().Error("control plane server stopped", "err", err)
		}
	}()
	return &grpcServerHandle{stop: srv.Stop}, nil
}

func buildStatusCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a running engine's task and executor statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "localhost:7070", "control-plane address")
	return cmd
}

func showStatus(address string) error {
	conn, err := rpc.Dial(address)
	if err != nil {
		return fmt.Errorf("failed to dial control plane: %w", err)
	}
	defer conn.Close()

	client := rpc.NewControlPlaneClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	watchers, err := client.ListWatchers(ctx, &rpc.ListWatchersRequest{})
	if err != nil {
		return fmt.Errorf("failed to list watchers: %w", err)
	}
	stats, err := client.ExecutorStats(ctx, &rpc.ExecutorStatsRequest{})
	if err != nil {
		return fmt.Errorf("failed to fetch executor stats: %w", err)
	}

	fmt.Printf("periodicengine at %s\n\n", address)
	fmt.Println("tasks:")
	for _, w := range watchers.Watchers {
		fmt.Printf("  %-24s runs=%-6d successes=%-6d failures=%-6d\n", w.Name, w.Runs, w.Successes, w.Failures)
	}
	fmt.Println()
	fmt.Printf("executor: executed=%d cancelled=%d failures=%d\n", stats.Executed, stats.Cancelled, stats.Failures)
	return nil
}

func buildAddCommand() *cobra.Command {
	var address, callable, name string
	var spacing time.Duration
	var immediate bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a task against a running engine",
		Long:  "Register an already-known callable (named in the engine's catalog) against a running engine over the control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			if callable == "" {
				return fmt.Errorf("--callable is required")
			}
			if name == "" {
				name = callable
			}
			return addTask(address, name, callable, spacing, immediate)
		},
	}
	cmd.Flags().StringVar(&address, "address", "localhost:7070", "control-plane address")
	cmd.Flags().StringVar(&callable, "callable", "", "name of a callable already known to the running engine")
	cmd.Flags().StringVar(&name, "name", "", "label shown in the confirmation message (defaults to --callable); it is not sent to the engine, which registers the task under the callable's name")
	cmd.Flags().DurationVar(&spacing, "spacing", time.Minute, "time between runs")
	cmd.Flags().BoolVar(&immediate, "immediate", false, "run once immediately before the normal schedule begins")
	return cmd
}

func addTask(address, name, callable string, spacing time.Duration, immediate bool) error {
	conn, err := rpc.Dial(address)
	if err != nil {
		return fmt.Errorf("failed to dial control plane: %w", err)
	}
	defer conn.Close()

	client := rpc.NewControlPlaneClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.AddTask(ctx, &rpc.AddTaskRequest{
		CallableName:   callable,
		SpacingMs:      spacing.Milliseconds(),
		RunImmediately: immediate,
	})
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	if !resp.Accepted {
		return fmt.Errorf("engine rejected task: %s", resp.Error)
	}

	fmt.Printf("registered %q (callable %q) every %s\n", name, callable, spacing)
	return nil
}
