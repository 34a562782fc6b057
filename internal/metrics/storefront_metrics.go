package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты оформления заказа для метки result.
const (
	CheckoutPlaced   = "placed"
	CheckoutRejected = "rejected"
	CheckoutError    = "error"
)

// StorefrontMetrics содержит метрики корзины, склада и оформления заказа.
// Все методы безопасны для nil-получателя.
type StorefrontMetrics struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram

	stockItems         *prometheus.CounterVec
	stockCompensations prometheus.Counter

	cartMutations *prometheus.CounterVec

	catalogRefreshes prometheus.Counter
	catalogProducts  prometheus.Gauge
}

// NewStorefrontMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewStorefrontMetrics() *StorefrontMetrics {
	return NewStorefrontMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStorefrontMetricsWithRegisterer регистрирует метрики в переданном registerer.
func NewStorefrontMetricsWithRegisterer(registerer prometheus.Registerer) *StorefrontMetrics {
	return &StorefrontMetrics{
		checkouts: counterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Total number of checkout attempts grouped by result and reason.",
		}, "result", "reason"),
		checkoutDuration: histogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration of checkout processing in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		stockItems: counterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_decrement_items_total",
			Help: "Total number of stock decrement items grouped by outcome.",
		}, "outcome"),
		stockCompensations: counter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_compensations_total",
			Help: "Total number of compensating stock increments after a failed checkout.",
		}),
		cartMutations: counterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations grouped by operation and result.",
		}, "operation", "result"),
		catalogRefreshes: counter(registerer, prometheus.CounterOpts{
			Name: "storefront_catalog_refreshes_total",
			Help: "Total number of catalog cache refreshes.",
		}),
		catalogProducts: gauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_catalog_products",
			Help: "Number of products in the catalog cache after the last refresh.",
		}),
	}
}

// RecordCheckout учитывает исход оформления: result — CheckoutPlaced/Rejected/Error.
func (m *StorefrontMetrics) RecordCheckout(result, reason string, duration time.Duration) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result, reason).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordStockItem учитывает исход списания одной позиции ("ok" или код причины).
func (m *StorefrontMetrics) RecordStockItem(outcome string) {
	if m == nil {
		return
	}
	m.stockItems.WithLabelValues(outcome).Inc()
}

// RecordCompensation учитывает компенсирующий возврат остатков.
func (m *StorefrontMetrics) RecordCompensation() {
	if m == nil {
		return
	}
	m.stockCompensations.Inc()
}

// RecordCartMutation учитывает операцию корзины ("ok" или код причины в result).
func (m *StorefrontMetrics) RecordCartMutation(operation, result string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(operation, result).Inc()
}

// RecordCatalogRefresh учитывает перечитывание каталога и его размер.
func (m *StorefrontMetrics) RecordCatalogRefresh(products int) {
	if m == nil {
		return
	}
	m.catalogRefreshes.Inc()
	m.catalogProducts.Set(float64(products))
}
