// Package metrics exposes the host's Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tonearm"

// Metrics is the set of host collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	Sessions        prometheus.Gauge
	MessagesSent    *prometheus.CounterVec
	MessagesRecv    *prometheus.CounterVec
	StateSyncs      *prometheus.CounterVec
	PatchBytes      prometheus.Histogram
	Authentications *prometheus.CounterVec
	Controls        *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connected client sessions.",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Envelopes sent to clients by kind.",
		}, []string{"kind"}),
		MessagesRecv: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Frames received from clients by kind; unparsable frames count as invalid.",
		}, []string{"kind"}),
		StateSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_syncs_total",
			Help:      "Player state envelopes sent by variant.",
		}, []string{"variant"}),
		PatchBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "state_patch_bytes",
			Help:      "Size of encoded state patches.",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 12),
		}),
		Authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authentications_total",
			Help:      "Authentication attempts by credential and result.",
		}, []string{"credential", "result"}),
		Controls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_controls_total",
			Help:      "Player controls by kind and result.",
		}, []string{"control", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Sessions,
		m.MessagesSent,
		m.MessagesRecv,
		m.StateSyncs,
		m.PatchBytes,
		m.Authentications,
		m.Controls,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Result labels an outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
