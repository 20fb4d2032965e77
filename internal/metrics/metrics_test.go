package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"sparrow/internal/llm"
)

func TestObserverCountsOutcomes(t *testing.T) {
	m := New()
	obs := m.Observer()

	obs.OnCallComplete(llm.LLMCallEvent{Task: llm.TaskAnalyze, Success: true, LatencyMs: 120})
	obs.OnCallComplete(llm.LLMCallEvent{Task: llm.TaskAnalyze, Success: false, ErrorCode: "TIMEOUT"})
	obs.OnCallComplete(llm.LLMCallEvent{Task: llm.TaskGenerate, Success: true, LatencyMs: 900})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMCalls.WithLabelValues("analyze", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMCalls.WithLabelValues("analyze", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMCalls.WithLabelValues("generate", "ok")))
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.OpportunitiesExpired.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.OpportunitiesExpired))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.OpportunitiesExpired))
}
