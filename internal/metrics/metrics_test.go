package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCase(t *testing.T) {
	m := New()

	m.RecordCase(core.NewResult("A", core.OutcomePassed, "", 200*time.Millisecond))
	m.RecordCase(core.NewResult("B", core.OutcomeTimedOut, "", time.Second))
	m.RecordCase(core.NewResult("C", core.OutcomePassed, "", time.Millisecond))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.casesTotal.WithLabelValues("Passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.casesTotal.WithLabelValues("TimedOut")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.caseDuration))
}

func TestRecordTimeoutAndRun(t *testing.T) {
	m := New()

	m.RecordTimeout(true)
	m.RecordTimeout(false)
	m.RecordTimeout(false)
	m.RecordRun("ok")
	m.RecordBatch(1500 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.timeoutsTotal.WithLabelValues("local")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.timeoutsTotal.WithLabelValues("global")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordCase(core.NewResult("A", core.OutcomePassed, "", 0))
		m.RecordTimeout(true)
		m.RecordBatch(time.Second)
		m.RecordRun("ok")
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordCase(core.NewResult("A", core.OutcomeFailed, "nope", time.Second))

	path := filepath.Join(t.TempDir(), "scenetest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scenetest_test_cases_total{outcome="Failed"} 1`)
}
