// ============================================================================
// Periodic Engine Scheduling Strategies
// ============================================================================
//
// Package: internal/strategy
// File: strategy.go
// Function: next-run formulas used by the periodic worker, both for
//           the very first schedule of a callable and after each run
//           completes
//
// A Strategy is a pair: Initial is used at construction/reset time for
// any callable with RunImmediately=false, Post is used after each
// completion. All built-in initial strategies default to now+spacing.
//
// ============================================================================

package strategy

import (
	"math"
	"time"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// MetricsSnapshot is the read-only view of a callable's metrics passed
// to a post-run strategy. The built-in strategies ignore it, but it is
// part of the contract so that custom strategies can take history into
// account.
type MetricsSnapshot struct {
	Runs           uint64
	Successes      uint64
	Failures       uint64
	Elapsed        time.Duration
	ElapsedWaiting time.Duration
}

// InitialFunc computes the first deadline for a callable, in the same
// clock domain as the worker's now_func.
type InitialFunc func(spacing time.Duration, now float64) float64

// PostFunc computes the next deadline after a run completes.
type PostFunc func(spacing time.Duration, startedAt, finishedAt float64, metrics MetricsSnapshot) float64

// Strategy bundles the initial and post-completion formulas selected
// by name at worker construction.
type Strategy struct {
	Post    PostFunc
	Initial InitialFunc
}

// DefaultJitter is the default maximum jitter fraction, matching the
// source library's fractions.Fraction(5, 100).
const DefaultJitter = 0.05

func nowPlusSpacing(spacing time.Duration, now float64) float64 {
	return now + spacing.Seconds()
}

func lastStarted(spacing time.Duration, startedAt, _ float64, _ MetricsSnapshot) float64 {
	return startedAt + spacing.Seconds()
}

func lastFinished(spacing time.Duration, _, finishedAt float64, _ MetricsSnapshot) float64 {
	return finishedAt + spacing.Seconds()
}

// alignedLastFinished snaps the next deadline to a multiple of spacing
// measured from the clock's zero point, so that drift never
// accumulates regardless of how long or short a run takes.
func alignedLastFinished(spacing time.Duration, _, finishedAt float64, _ MetricsSnapshot) float64 {
	how := spacing.Seconds()
	aligned := finishedAt - math.Mod(finishedAt, how)
	return aligned + how
}

// WithJitter wraps a post-run strategy, adding a non-negative uniform
// random offset up to spacing*maxPercentJitter. Jitter is added after
// the base strategy runs. maxPercentJitter must be in [0,1].
func WithJitter(maxPercentJitter float64, base PostFunc, source Source) (PostFunc, error) {
	if maxPercentJitter < 0 || maxPercentJitter > 1 {
		return nil, &types.ConfigError{Msg: "jitter fraction must be within [0, 1]"}
	}
	return func(spacing time.Duration, startedAt, finishedAt float64, metrics MetricsSnapshot) float64 {
		nextRun := base(spacing, startedAt, finishedAt, metrics)
		jitter := spacing.Seconds() * (source.Float64() * maxPercentJitter)
		return nextRun + jitter
	}, nil
}

// Registry is a lookup table of built-in strategy names to Strategy
// values, used by the periodic worker at construction time.
type Registry map[string]Strategy

// BuiltIn returns the default registry, seeded with a cryptographically
// seeded jitter source so fleets of identically-configured workers do
// not synchronize.
func BuiltIn() Registry {
	return BuiltInWithSource(NewCryptoSeededSource())
}

// BuiltInWithSource is BuiltIn but with an injected jitter source,
// primarily for deterministic tests.
func BuiltInWithSource(source Source) Registry {
	lastStartedJitter, err := WithJitter(DefaultJitter, lastStarted, source)
	if err != nil {
		panic(err)
	}
	lastFinishedJitter, err := WithJitter(DefaultJitter, lastFinished, source)
	if err != nil {
		panic(err)
	}
	alignedJitter, err := WithJitter(DefaultJitter, alignedLastFinished, source)
	if err != nil {
		panic(err)
	}
	return Registry{
		"last_started": {
			Post:    lastStarted,
			Initial: nowPlusSpacing,
		},
		"last_started_jitter": {
			Post:    lastStartedJitter,
			Initial: nowPlusSpacing,
		},
		"last_finished": {
			Post:    lastFinished,
			Initial: nowPlusSpacing,
		},
		"last_finished_jitter": {
			Post:    lastFinishedJitter,
			Initial: nowPlusSpacing,
		},
		"aligned_last_finished": {
			Post:    alignedLastFinished,
			Initial: nowPlusSpacing,
		},
		"aligned_last_finished_jitter": {
			Post:    alignedJitter,
			Initial: nowPlusSpacing,
		},
	}
}

// Lookup resolves a strategy by name, returning a ConfigError if it is
// not a known strategy. Construction must fail before the worker
// accepts any callables, per spec.
func (r Registry) Lookup(name string) (Strategy, error) {
	s, ok := r[name]
	if !ok {
		return Strategy{}, &types.ConfigError{Msg: "unknown scheduling strategy: " + name}
	}
	return s, nil
}
