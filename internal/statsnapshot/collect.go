package statsnapshot

import (
	"github.com/ChuLiYu/periodic-engine/internal/periodic"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// Collect builds a Data snapshot from a worker's watchers and a set of
// named executor statistics. AverageElapsed/AverageElapsedWaiting
// report zero for a callable that has never run rather than failing
// the whole snapshot.
func Collect(w *periodic.Worker, executors map[string]types.ExecutorStatistics) Data {
	data := Data{SchemaVer: schemaVersion, Executors: executors}
	if data.Executors == nil {
		data.Executors = map[string]types.ExecutorStatistics{}
	}

	for watcher := range w.IterWatchers() {
		avgElapsed, _ := watcher.AverageElapsed()
		avgWaiting, _ := watcher.AverageElapsedWaiting()
		data.Callables = append(data.Callables, CallableStats{
			Name:                 watcher.Name(),
			Runs:                 watcher.Runs(),
			Successes:            watcher.Successes(),
			Failures:             watcher.Failures(),
			AverageElapsedMs:     float64(avgElapsed.Microseconds()) / 1000,
			AverageElapsedWaitMs: float64(avgWaiting.Microseconds()) / 1000,
		})
	}
	return data
}
