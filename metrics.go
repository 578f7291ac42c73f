package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// trackerMetrics bundles the Prometheus instruments for the tracking core.
// All recording methods tolerate a nil receiver so tests can pass nil instead
// of wiring a registry.
type trackerMetrics struct {
	gatherer prometheus.Gatherer

	updatesApplied   prometheus.Counter
	updatesRejected  prometheus.Counter
	broadcasts       prometheus.Counter
	trackedEntities  prometheus.Gauge
	connectedViewers prometheus.Gauge
}

func newTrackerMetrics(reg *prometheus.Registry) *trackerMetrics {
	m := &trackerMetrics{
		gatherer: reg,
		updatesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_updates_applied_total",
			Help: "Location updates accepted and applied to the store.",
		}),
		updatesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_updates_rejected_total",
			Help: "Location updates dropped for invalid coordinates.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_broadcasts_total",
			Help: "Full-state snapshots pushed to viewers.",
		}),
		trackedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_entities",
			Help: "Currently tracked entities.",
		}),
		connectedViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_viewers",
			Help: "Currently connected viewer sessions.",
		}),
	}
	reg.MustRegister(m.updatesApplied, m.updatesRejected, m.broadcasts, m.trackedEntities, m.connectedViewers)
	return m
}

func (m *trackerMetrics) updateApplied() {
	if m == nil {
		return
	}
	m.updatesApplied.Inc()
}

func (m *trackerMetrics) updateRejected() {
	if m == nil {
		return
	}
	m.updatesRejected.Inc()
}

func (m *trackerMetrics) broadcastSent() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}

func (m *trackerMetrics) setTrackedEntities(n int) {
	if m == nil {
		return
	}
	m.trackedEntities.Set(float64(n))
}

func (m *trackerMetrics) setConnectedViewers(n int) {
	if m == nil {
		return
	}
	m.connectedViewers.Set(float64(n))
}

// handler exposes a ready-to-use /metrics handler.
func (m *trackerMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
