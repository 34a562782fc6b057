package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IdempotencyMetrics метрики ключей идемпотентности оформления заказа.
type IdempotencyMetrics struct {
	cleanupRuns        *prometheus.CounterVec
	cleanupDeleted     prometheus.Counter
	cleanupLastDeleted prometheus.Gauge
	requests           *prometheus.CounterVec
}

// NewIdempotencyMetrics регистрирует метрики в переданном registerer (nil — DefaultRegisterer).
func NewIdempotencyMetrics(registerer prometheus.Registerer) *IdempotencyMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &IdempotencyMetrics{
		cleanupRuns: counterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result.",
		}, "result"),
		cleanupDeleted: counter(registerer, prometheus.CounterOpts{
			Name: "storefront_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency records.",
		}),
		cleanupLastDeleted: gauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_idempotency_cleanup_last_deleted",
			Help: "Number of deleted records during the last cleanup run.",
		}),
		requests: counterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_idempotency_requests_total",
			Help: "Total number of idempotent checkout requests grouped by outcome.",
		}, "outcome"),
	}
}

// RecordCleanupRun учитывает цикл очистки: result — "ok" или "error".
func (m *IdempotencyMetrics) RecordCleanupRun(result string, deleted int) {
	if m == nil {
		return
	}
	m.cleanupRuns.WithLabelValues(result).Inc()
	if result == "ok" {
		m.cleanupLastDeleted.Set(float64(deleted))
	}
}

// RecordDeleted учитывает удалённые записи одной порции.
func (m *IdempotencyMetrics) RecordDeleted(deleted int) {
	if m == nil || deleted <= 0 {
		return
	}
	m.cleanupDeleted.Add(float64(deleted))
}

// RecordRequest учитывает исход запроса с ключом: new, replay, in_progress, mismatch.
func (m *IdempotencyMetrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}
