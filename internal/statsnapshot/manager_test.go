package statsnapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/internal/periodic"
	"github.com/ChuLiYu/periodic-engine/internal/strategy"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

func TestLoadReturnsEmptyDataWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	m := NewManager(path)

	assert.False(t, m.Exists())
	data, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, data.SchemaVer)
	assert.Empty(t, data.Callables)
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	m := NewManager(path)

	data := Data{
		Callables: []CallableStats{{Name: "tick", Runs: 3, Successes: 3}},
		Executors: map[string]types.ExecutorStatistics{"synchronous": {Executed: 3}},
	}
	require.NoError(t, m.Write(data))
	assert.True(t, m.Exists())

	loaded, err := m.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Callables, 1)
	assert.Equal(t, "tick", loaded.Callables[0].Name)
	assert.Equal(t, uint64(3), loaded.Callables[0].Runs)
	assert.Equal(t, uint64(3), loaded.Executors["synchronous"].Executed)
}

func TestWriteIsAtomicAcrossRepeatedCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	m := NewManager(path)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Write(Data{Callables: []CallableStats{{Name: "tick", Runs: uint64(i)}}}))
	}
	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), loaded.Callables[0].Runs)
}

func TestCollectBuildsFromWorkerWatchers(t *testing.T) {
	reg := strategy.BuiltIn()
	s, err := reg.Lookup("last_started")
	require.NoError(t, err)
	w, err := periodic.New(periodic.Options{Clock: clock.NewMonotonic(), Strategy: s})
	require.NoError(t, err)

	_, err = w.Add("tick", types.TaskSpec{Enabled: true, Spacing: 10 * time.Millisecond}, func() (any, error) { return nil, nil })
	require.NoError(t, err)

	data := Collect(w, map[string]types.ExecutorStatistics{"synchronous": {Executed: 0}})
	require.Len(t, data.Callables, 1)
	assert.Equal(t, "tick", data.Callables[0].Name)
	assert.Equal(t, uint64(0), data.Callables[0].Runs)
}
