// Package metrics exposes dashboard counters and gauges through a private
// Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons.
const (
	ReasonInactiveSource = "inactive_source"
	ReasonInvalid        = "invalid"
	ReasonStale          = "stale_response"
)

// Metrics groups every collector the controller updates.
type Metrics struct {
	Registry *prometheus.Registry

	Ingested       *prometheus.CounterVec
	Dropped        *prometheus.CounterVec
	FetchFailures  *prometheus.CounterVec
	Refreshes      prometheus.Counter
	Toggles        *prometheus.CounterVec
	BufferLength   prometheus.Gauge
	SuggestionsLen prometheus.Gauge
	Simulated      prometheus.Gauge
	Efficiency     prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homedash",
			Name:      "readings_ingested_total",
			Help:      "Readings applied to the dashboard, by source.",
		}, []string{"source"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homedash",
			Name:      "events_dropped_total",
			Help:      "Events or responses discarded, by reason.",
		}, []string{"reason"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homedash",
			Name:      "fetch_failures_total",
			Help:      "Failed provider calls, by operation.",
		}, []string{"op"}),
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homedash",
			Name:      "refreshes_total",
			Help:      "Full refresh cycles started.",
		}),
		Toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homedash",
			Name:      "device_toggles_total",
			Help:      "Device toggle commands, by result.",
		}, []string{"result"}),
		BufferLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homedash",
			Name:      "chart_points",
			Help:      "Points currently held by the chart buffer.",
		}),
		SuggestionsLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homedash",
			Name:      "suggestions_queued",
			Help:      "Suggestions currently queued.",
		}),
		Simulated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homedash",
			Name:      "simulated_mode",
			Help:      "1 while the simulator replaces the push channel.",
		}),
		Efficiency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homedash",
			Name:      "efficiency_score",
			Help:      "Efficiency score of the current reading.",
		}),
	}
	m.Registry.MustRegister(
		m.Ingested, m.Dropped, m.FetchFailures, m.Refreshes, m.Toggles,
		m.BufferLength, m.SuggestionsLen, m.Simulated, m.Efficiency,
	)
	return m
}

// Router serves /metrics and /healthz.
func (m *Metrics) Router() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	return r
}
