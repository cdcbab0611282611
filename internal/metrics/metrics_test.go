package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRecordsOnIsolatedRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTool("validate_data", "success", 5*time.Millisecond)
	m.ObserveTool("validate_data", "success", time.Millisecond)
	m.ObserveTool("fix_data", "error", time.Millisecond)
	m.ObserveLLM("analyze", "rejected")
	m.ObserveFallback("analyze")
	m.ObserveQuery("success")
	m.ObserveLoad(42, nil)
	m.ObserveLoad(0, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("validate_data", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("fix_data", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("analyze", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("analyze")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("success")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.DatasetRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ToolDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTool("x", "success", time.Second)
		m.ObserveLLM("analyze", "ok")
		m.ObserveFallback("synthesize")
		m.ObserveQuery("error")
		m.ObserveLoad(1, nil)
	})
}
