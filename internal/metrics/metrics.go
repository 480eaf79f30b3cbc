// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics provides Prometheus instruments for workspace
// operations and snapshot persistence.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments. Each instance registers on its
// own registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	RejectionsTotal   *prometheus.CounterVec
	NotFoundTotal     *prometheus.CounterVec
	SnapshotWrites    *prometheus.CounterVec
	SnapshotDuration  prometheus.Histogram
	SnapshotSizeBytes prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all instruments on a fresh registry that also
// carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_operations_total",
			Help: "Workspace operations that ran to completion",
		}, []string{"op"}),

		RejectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_policy_rejections_total",
			Help: "Workspace operations rejected by a policy check",
		}, []string{"op", "reason"}),

		NotFoundTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_not_found_total",
			Help: "Workspace operations that were no-ops because an entity did not resolve",
		}, []string{"op"}),

		SnapshotWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_snapshot_writes_total",
			Help: "Snapshot flushes by result",
		}, []string{"result"}),

		SnapshotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptforge_snapshot_flush_duration_seconds",
			Help:    "Time to encode and save the entity snapshot",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		SnapshotSizeBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "promptforge_snapshot_size_bytes",
			Help: "Size of the last encoded entity snapshot",
		}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_http_requests_total",
			Help: "HTTP requests by route pattern and status class",
		}, []string{"route", "status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promptforge_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// RecordOperation counts a completed operation.
func (m *Metrics) RecordOperation(op string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(op).Inc()
}

// RecordRejection counts an operation aborted by a policy check.
func (m *Metrics) RecordRejection(op, reason string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(op, reason).Inc()
}

// RecordNotFound counts an operation that resolved nothing.
func (m *Metrics) RecordNotFound(op string) {
	if m == nil {
		return
	}
	m.NotFoundTotal.WithLabelValues(op).Inc()
}

// RecordFlush records one snapshot write.
func (m *Metrics) RecordFlush(size int, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		m.SnapshotSizeBytes.Set(float64(size))
	}
	m.SnapshotWrites.WithLabelValues(result).Inc()
	m.SnapshotDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
