// Package metrics exposes Prometheus collectors for the mock server.
//
// All collectors live on a private registry so tests can create as many
// Metrics values as they like. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wireq"

// Protocol labels.
const (
	ProtocolDequeue   = "dequeue"
	ProtocolGetDelete = "get_delete"
)

// Metrics bundles the collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	throttled        prometheus.Counter
	entriesDelivered *prometheus.CounterVec
	receiptsIssued   prometheus.Counter
	receiptsRedeemed prometheus.Counter
	receiptsRejected *prometheus.CounterVec

	storageWrites  prometheus.Histogram
	storageReads   prometheus.Histogram
	storageCommits prometheus.Histogram
	storageOps     prometheus.Counter
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "throttled_requests_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		entriesDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "entries_delivered_total",
			Help: "Entries handed to clients by protocol.",
		}, []string{"protocol"}),
		receiptsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "receipts_issued_total",
			Help: "Receipts issued by GET.",
		}),
		receiptsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "receipts_redeemed_total",
			Help: "Receipts redeemed by a successful DELETE.",
		}),
		receiptsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "receipts_rejected_total",
			Help: "DELETE requests rejected by reason.",
		}, []string{"reason"}),
		storageWrites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "storage", Name: "write_seconds",
			Help: "Single key write latency.", Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		storageReads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "storage", Name: "read_seconds",
			Help: "Single key read latency.", Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		storageCommits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "storage", Name: "batch_commit_seconds",
			Help: "Batch commit latency.", Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		storageOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "storage", Name: "batch_ops_total",
			Help: "Operations applied through batch commits.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.throttled, m.entriesDelivered,
		m.receiptsIssued, m.receiptsRedeemed, m.receiptsRejected,
		m.storageWrites, m.storageReads, m.storageCommits, m.storageOps,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterGauge exposes fn as a gauge, e.g. for store counts.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: name, Help: help,
	}, fn))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) IncThrottled() {
	if m == nil {
		return
	}
	m.throttled.Inc()
}

func (m *Metrics) AddDelivered(protocol string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesDelivered.WithLabelValues(protocol).Add(float64(n))
}

func (m *Metrics) IncReceiptIssued() {
	if m == nil {
		return
	}
	m.receiptsIssued.Inc()
}

func (m *Metrics) IncReceiptRedeemed() {
	if m == nil {
		return
	}
	m.receiptsRedeemed.Inc()
}

// IncReceiptRejected counts a failed DELETE; reason is "unknown", "expired"
// or "inconsistent".
func (m *Metrics) IncReceiptRejected(reason string) {
	if m == nil {
		return
	}
	m.receiptsRejected.WithLabelValues(reason).Inc()
}

// ObserveWrite implements pebblestore.MetricsHook.
func (m *Metrics) ObserveWrite(elapsed time.Duration, _ int) {
	if m == nil {
		return
	}
	m.storageWrites.Observe(elapsed.Seconds())
}

// ObserveRead implements pebblestore.MetricsHook.
func (m *Metrics) ObserveRead(elapsed time.Duration, _ int) {
	if m == nil {
		return
	}
	m.storageReads.Observe(elapsed.Seconds())
}

// ObserveBatchCommit implements pebblestore.MetricsHook.
func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, numOps int, _ int) {
	if m == nil {
		return
	}
	m.storageCommits.Observe(elapsed.Seconds())
	m.storageOps.Add(float64(numOps))
}
