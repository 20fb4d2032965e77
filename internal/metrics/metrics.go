// Package metrics registers the engine's Prometheus collectors and serves
// the /metrics and /health endpoints.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sparrow/internal/llm"
)

// Metrics holds every collector the engine emits.
type Metrics struct {
	registry *prometheus.Registry

	DiscoveryRuns     *prometheus.CounterVec
	DiscoveryErrors   *prometheus.CounterVec
	DiscoveryDuration *prometheus.HistogramVec

	OpportunitiesCreated *prometheus.CounterVec
	OpportunitiesExpired prometheus.Counter

	PostingAttempts *prometheus.CounterVec

	LLMCalls    *prometheus.CounterVec
	LLMDuration *prometheus.HistogramVec
}

// New builds a Metrics with its own registry so tests never collide on
// the global default.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DiscoveryRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparrow_discovery_runs_total",
			Help: "Discovery runs by type and outcome.",
		}, []string{"type", "outcome"}),
		DiscoveryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparrow_discovery_errors_total",
			Help: "Discovery failures by type.",
		}, []string{"type"}),
		DiscoveryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sparrow_discovery_duration_seconds",
			Help:    "Wall time of discovery runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		OpportunitiesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparrow_opportunities_created_total",
			Help: "Opportunities stored, by discovery type.",
		}, []string{"type"}),
		OpportunitiesExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "sparrow_opportunities_expired_total",
			Help: "Pending opportunities moved to expired by the sweeper.",
		}),
		PostingAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparrow_posting_attempts_total",
			Help: "Posting attempts by outcome.",
		}, []string{"outcome"}),
		LLMCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparrow_llm_calls_total",
			Help: "LLM calls by task and outcome.",
		}, []string{"task", "outcome"}),
		LLMDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sparrow_llm_call_duration_seconds",
			Help:    "Latency of LLM calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"task"}),
	}
}

// Observer adapts the Metrics to the LLM client's observer hook.
func (m *Metrics) Observer() llm.Observer {
	return observer{m: m}
}

type observer struct {
	m *Metrics
}

func (o observer) OnCallComplete(event llm.LLMCallEvent) {
	outcome := "ok"
	if !event.Success {
		outcome = "error"
	}
	o.m.LLMCalls.WithLabelValues(string(event.Task), outcome).Inc()
	o.m.LLMDuration.WithLabelValues(string(event.Task)).Observe(float64(event.LatencyMs) / 1000)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics listener until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
