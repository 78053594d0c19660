// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus metrics for the picker: HTTP traffic,
// record fetches, and writes to selection fields.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catpicker"

// Result label values.
const (
	resultOK       = "ok"
	resultFailed   = "failed"
	resultRejected = "rejected"
)

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	fetchRecords  prometheus.Histogram

	fieldWrites  *prometheus.CounterVec
	fieldChanges prometheus.Counter
}

// New creates a registry with the Go and process collectors and the
// picker's own metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "fetches_total",
			Help:      "Category record fetches by result.",
		}, []string{"result"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "fetch_duration_seconds",
			Help:      "Category record fetch latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		fetchRecords: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "fetch_size",
			Help:      "Records returned per successful fetch.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000},
		}),

		fieldWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "field_writes_total",
			Help:      "Writes of a selection back to its field by result.",
		}, []string{"result"}),
		fieldChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "field_changes_total",
			Help:      "Field change notifications delivered to subscribers.",
		}),
	}
}

// GaugeFunc registers a gauge whose value is read from fn on each scrape.
func (m *Metrics) GaugeFunc(subsystem, name, help string, fn func() float64) {
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
