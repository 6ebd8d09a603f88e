package periodic

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/internal/strategy"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	reg := strategy.BuiltIn()
	s, err := reg.Lookup("last_started")
	require.NoError(t, err)

	w, err := New(Options{Clock: clock.NewMonotonic(), Strategy: s})
	require.NoError(t, err)
	return w
}

func TestWorkerRunsRegisteredCallableOnSchedule(t *testing.T) {
	w := newTestWorker(t)
	var runs int32
	_, err := w.Add("tick", types.TaskSpec{Enabled: true, Spacing: 20 * time.Millisecond}, func() (any, error) {
		atomic.AddInt32(&runs, 1)
		return nil, nil
	})
	require.NoError(t, err)

	go w.Start(false)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 2
	}, time.Second, time.Millisecond)
}

func TestImmediateAddAfterStartRunsPromptly(t *testing.T) {
	w := newTestWorker(t)
	go w.Start(true)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()

	ran := make(chan struct{})
	_, err := w.Add("boot", types.TaskSpec{Enabled: true, Spacing: 100 * time.Millisecond, RunImmediately: true}, func() (any, error) {
		close(ran)
		return nil, nil
	})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("immediate callable did not run promptly")
	}
}

func TestDoubleStartIsRejected(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.Add("tick", types.TaskSpec{Enabled: true, Spacing: time.Second}, func() (any, error) { return nil, nil })
	require.NoError(t, err)

	go w.Start(false)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()
	require.Eventually(t, func() bool { return w.Len() == 1 }, time.Second, time.Millisecond)

	// Give the background goroutine a moment to actually mark started.
	time.Sleep(20 * time.Millisecond)
	err = w.Start(false)
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestDisabledCallableIsSilentlyDropped(t *testing.T) {
	w := newTestWorker(t)
	watcher, err := w.Add("off", types.TaskSpec{Enabled: false, Spacing: time.Second}, func() (any, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, watcher)
	assert.Equal(t, 0, w.Len())
}

func TestInvalidSpacingIsConfigError(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.Add("bad", types.TaskSpec{Enabled: true, Spacing: 0}, func() (any, error) { return nil, nil })
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMultiCallableCadenceAccumulatesRuns(t *testing.T) {
	w := newTestWorker(t)
	var fastRuns, slowRuns int32
	_, err := w.Add("fast", types.TaskSpec{Enabled: true, Spacing: 25 * time.Millisecond}, func() (any, error) {
		atomic.AddInt32(&fastRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)
	_, err = w.Add("slow", types.TaskSpec{Enabled: true, Spacing: 50 * time.Millisecond}, func() (any, error) {
		atomic.AddInt32(&slowRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	go w.Start(false)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fastRuns)+atomic.LoadInt32(&slowRuns) >= 4
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.Add("tick", types.TaskSpec{Enabled: true, Spacing: time.Second}, func() (any, error) { return nil, nil })
	require.NoError(t, err)

	go w.Start(false)
	require.Eventually(t, func() bool { return w.Len() == 1 }, time.Second, time.Millisecond)

	w.Stop()
	w.Stop()
	assert.True(t, w.Wait(time.Second))
}

func TestResetClearsMetricsObservedThroughWatcher(t *testing.T) {
	w := newTestWorker(t)
	var runs int32
	watcher, err := w.Add("tick", types.TaskSpec{Enabled: true, Spacing: 10 * time.Millisecond}, func() (any, error) {
		atomic.AddInt32(&runs, 1)
		return nil, nil
	})
	require.NoError(t, err)

	go w.Start(false)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, time.Second, time.Millisecond)
	w.Stop()
	require.True(t, w.Wait(time.Second))

	require.Greater(t, watcher.Runs(), uint64(0))
	w.Reset()
	assert.Equal(t, uint64(0), watcher.Runs())
	assert.Equal(t, uint64(0), watcher.Successes())
}

func TestFailureRunsOnFailureHookAndCountsMetrics(t *testing.T) {
	reg := strategy.BuiltIn()
	s, err := reg.Lookup("last_started")
	require.NoError(t, err)

	failureSeen := make(chan *types.Failure, 1)
	w, err := New(Options{
		Clock:    clock.NewMonotonic(),
		Strategy: s,
		OnFailure: func(name string, kind types.Kind, spacing time.Duration, failure *types.Failure) {
			failureSeen <- failure
		},
	})
	require.NoError(t, err)

	boom := assertableError{"boom"}
	watcher, err := w.Add("bad", types.TaskSpec{Enabled: true, Spacing: 20 * time.Millisecond}, func() (any, error) {
		return nil, boom
	})
	require.NoError(t, err)

	go w.Start(false)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()

	select {
	case f := <-failureSeen:
		require.NotNil(t, f)
		assert.Contains(t, f.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("on-failure hook never fired")
	}

	require.Eventually(t, func() bool { return watcher.Failures() > 0 }, time.Second, time.Millisecond)
	assert.Equal(t, watcher.Runs(), watcher.Failures())
}

type assertableError struct{ msg string }

func (e assertableError) Error() string { return e.msg }

func TestStartAfterStopWithoutResetIsRejected(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.Add("tick", types.TaskSpec{Enabled: true, Spacing: 10 * time.Millisecond}, func() (any, error) { return nil, nil })
	require.NoError(t, err)

	go w.Start(false)
	require.Eventually(t, func() bool { return w.Len() == 1 }, time.Second, time.Millisecond)
	w.Stop()
	require.True(t, w.Wait(time.Second))

	err = w.Start(false)
	require.ErrorIs(t, err, types.ErrShutdown)

	w.Reset()
	go w.Start(false)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, w.Len())
}

// discoverableFixture exercises every arity/return-shape branch
// wrapMethod supports: no return, value only, error only, and
// (value, error).
type discoverableFixture struct {
	noneRuns  int32
	valueRuns int32
	errRuns   int32
	bothRuns  int32
	failBoth  bool
}

func (d *discoverableFixture) PeriodicTasks() map[string]types.TaskSpec {
	spacing := 10 * time.Millisecond
	return map[string]types.TaskSpec{
		"RunNone":  {Enabled: true, Spacing: spacing},
		"RunValue": {Enabled: true, Spacing: spacing},
		"RunErr":   {Enabled: true, Spacing: spacing},
		"RunBoth":  {Enabled: true, Spacing: spacing},
	}
}

func (d *discoverableFixture) RunNone() {
	atomic.AddInt32(&d.noneRuns, 1)
}

func (d *discoverableFixture) RunValue() string {
	atomic.AddInt32(&d.valueRuns, 1)
	return "ok"
}

func (d *discoverableFixture) RunErr() error {
	atomic.AddInt32(&d.errRuns, 1)
	return nil
}

func (d *discoverableFixture) RunBoth() (string, error) {
	atomic.AddInt32(&d.bothRuns, 1)
	if d.failBoth {
		return "", assertableError{"both failed"}
	}
	return "value", nil
}

func TestDiscoverRegistersMethodsAcrossReturnShapes(t *testing.T) {
	w := newTestWorker(t)
	fixture := &discoverableFixture{}
	require.NoError(t, w.Discover(fixture))
	assert.Equal(t, 4, w.Len())

	go w.Start(false)
	defer func() {
		w.Stop()
		w.Wait(time.Second)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fixture.noneRuns) > 0 &&
			atomic.LoadInt32(&fixture.valueRuns) > 0 &&
			atomic.LoadInt32(&fixture.errRuns) > 0 &&
			atomic.LoadInt32(&fixture.bothRuns) > 0
	}, time.Second, time.Millisecond)
}

func TestDiscoverRejectsUnknownMethodName(t *testing.T) {
	w := newTestWorker(t)
	err := w.Discover(missingMethodFixture{})
	require.Error(t, err)
	var valErr *types.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

type missingMethodFixture struct{}

func (missingMethodFixture) PeriodicTasks() map[string]types.TaskSpec {
	return map[string]types.TaskSpec{"DoesNotExist": {Enabled: true, Spacing: time.Second}}
}
