package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector(nil)
	require.NotNil(t, c)
	assert.NotNil(t, c.runs)
	assert.NotNil(t, c.successes)
	assert.NotNil(t, c.failures)
	assert.NotNil(t, c.elapsed)
	assert.NotNil(t, c.elapsedWaiting)
}

func TestRecordRunIncrementsSuccessAndFailureSeparately(t *testing.T) {
	c := NewCollector(nil)

	assert.NotPanics(t, func() {
		c.RecordRun("tick", false, 0.01, 0.001)
		c.RecordRun("tick", true, 0.02, 0.002)
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `periodic_runs_total{callable="tick"} 2`)
	assert.Contains(t, body, `periodic_successes_total{callable="tick"} 1`)
	assert.Contains(t, body, `periodic_failures_total{callable="tick"} 1`)
}

func TestSetExecutorStatistics(t *testing.T) {
	c := NewCollector(nil)

	assert.NotPanics(t, func() {
		c.SetExecutorStatistics("threadpool", types.ExecutorStatistics{
			Executed:  10,
			Cancelled: 1,
			Failures:  2,
		})
	})
}

func TestCollectorIsolation(t *testing.T) {
	c1 := NewCollector(nil)
	c2 := NewCollector(nil)
	require.NotNil(t, c1)
	require.NotNil(t, c2)

	c1.RecordRun("a", false, 0.1, 0)
	c2.RecordRun("b", false, 0.1, 0)

	rec := httptest.NewRecorder()
	c1.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `callable="a"`)
	assert.NotContains(t, rec.Body.String(), `callable="b"`)
}

func TestHandlerServesMetricsText(t *testing.T) {
	c := NewCollector(nil)
	c.RecordRun("tick", false, 0.05, 0.001)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "periodic_runs_total")
}

func TestConcurrentMetricUpdates(t *testing.T) {
	c := NewCollector(nil)
	done := make(chan struct{}, 50)

	for i := 0; i < 50; i++ {
		go func() {
			c.RecordRun("tick", false, 0.01, 0.001)
			c.SetExecutorStatistics("synchronous", types.ExecutorStatistics{Executed: 1})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 50; i++ {
		<-done
	}
}
