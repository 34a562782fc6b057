// Package checkout проводит заказ через проверку остатков, списание и запись
// в журнал заказов. Отказы на любом шаге возвращаются кодом причины.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

var errNoCart = errors.New("cart is required")

// CartSource то, что движку нужно от корзины при оформлении.
type CartSource interface {
	Items() []domain.LineItem
	ToOrder(ctx context.Context, customer domain.Customer) (domain.Order, error)
	Clear(ctx context.Context) error
}

// CatalogRefresher перечитывает кэш каталога после оформления заказа.
type CatalogRefresher interface {
	Refresh(ctx context.Context) ([]domain.Product, error)
}

// Option настраивает Engine.
type Option func(*Engine)

// WithPublisher включает публикацию событий оформления.
func WithPublisher(publisher domain.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithMetrics включает метрики оформления.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger задаёт logger движка.
func WithLogger(logger *log.Entry) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCatalog задаёт кэш каталога, который обновляется после успешного заказа.
func WithCatalog(catalog CatalogRefresher) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithoutCompensation отключает возврат списанных остатков при сбое:
// частично списанный батч остаётся как есть.
func WithoutCompensation() Option {
	return func(e *Engine) {
		e.compensate = false
	}
}

// Engine движок оформления заказа.
type Engine struct {
	mu     sync.Mutex
	ledger domain.StockLedger
	orders domain.OrderLog

	compensate bool
	publisher  domain.EventPublisher
	catalog    CatalogRefresher
	metrics    *metrics.StorefrontMetrics
	logger     *log.Entry
}

// NewEngine создаёт движок поверх склада и журнала заказов.
func NewEngine(ledger domain.StockLedger, orders domain.OrderLog, opts ...Option) *Engine {
	e := &Engine{
		ledger:     ledger,
		orders:     orders,
		compensate: true,
		logger:     log.New().WithField("component", "checkout"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateStock сверяет позиции с одним снимком каталога и ничего не меняет.
// Каждая позиция проверяется независимо от остальных.
func (e *Engine) ValidateStock(ctx context.Context, items []domain.LineItem) (domain.StockValidation, error) {
	products, err := e.ledger.Products(ctx)
	if err != nil {
		return domain.StockValidation{}, err
	}

	validation := domain.StockValidation{OK: true, Items: make([]domain.ItemOutcome, 0, len(items))}
	for _, item := range items {
		outcome := domain.ItemOutcome{ProductID: item.ProductID}
		idx := domain.FindProduct(products, item.ProductID)
		switch {
		case item.Qty <= 0:
			outcome.Reason = domain.ReasonInvalidQuantity
		case idx < 0:
			outcome.Reason = domain.ReasonProductNotFound
		case item.Qty > products[idx].Stock:
			outcome.Reason = domain.ReasonInsufficientStock
			outcome.Available = domain.IntPtr(products[idx].Stock)
		default:
			outcome.OK = true
		}
		if !outcome.OK {
			validation.OK = false
		}
		validation.Items = append(validation.Items, outcome)
	}
	return validation, nil
}

// ProcessOrder проверяет остатки, списывает их и записывает заказ в журнал.
// Шаги выполняются под одной блокировкой движка.
func (e *Engine) ProcessOrder(ctx context.Context, order domain.Order) (domain.CheckoutResult, error) {
	start := time.Now()
	logger := e.logger.WithField("order_id", order.ID)

	e.mu.Lock()
	defer e.mu.Unlock()

	batch := order.LineItems()

	validation, err := e.ValidateStock(ctx, batch)
	if err != nil {
		e.metrics.RecordCheckout(metrics.CheckoutError, "", time.Since(start))
		return domain.CheckoutResult{}, fmt.Errorf("validate stock for %s: %w", order.ID, err)
	}
	if !validation.OK {
		return e.reject(order.ID, domain.ReasonStockConflict, validation.Items, start), nil
	}

	decrement, err := e.ledger.DecrementStock(ctx, batch)
	if err != nil {
		e.metrics.RecordCheckout(metrics.CheckoutError, "", time.Since(start))
		return domain.CheckoutResult{}, fmt.Errorf("decrement stock for %s: %w", order.ID, err)
	}
	if !decrement.Success {
		e.restore(ctx, logger, order.ID, decrement.PassedItems(batch))
		return e.reject(order.ID, domain.ReasonDecrementFailed, decrement.Items, start), nil
	}

	if err := e.orders.Append(ctx, order); err != nil {
		logger.WithError(err).Error("failed to append order, stock already decremented")
		e.restore(ctx, logger, order.ID, batch)
		e.metrics.RecordCheckout(metrics.CheckoutError, "", time.Since(start))
		return domain.CheckoutResult{}, fmt.Errorf("append order %s: %w", order.ID, err)
	}

	logger.WithFields(log.Fields{
		"items": len(order.Items),
		"total": order.Totals.Total,
	}).Info("order placed")
	e.metrics.RecordCheckout(metrics.CheckoutPlaced, "", time.Since(start))
	e.publish(kafka.TopicOrderEvents, order.ID, kafka.NewOrderPlacedEvent(order))

	return domain.CheckoutResult{Success: true, OrderID: order.ID}, nil
}

// Checkout оформляет текущую корзину: проверяет покупателя, непустоту корзины
// и остатки, затем проводит заказ, очищает корзину и обновляет каталог.
func (e *Engine) Checkout(ctx context.Context, cart CartSource, customer domain.Customer) (domain.Order, domain.CheckoutResult, error) {
	if cart == nil {
		return domain.Order{}, domain.CheckoutResult{}, errNoCart
	}
	start := time.Now()

	if problems := customer.Validate(); len(problems) > 0 {
		e.metrics.RecordCheckout(metrics.CheckoutRejected, string(domain.ReasonInvalidCustomer), time.Since(start))
		return domain.Order{}, domain.CheckoutResult{Reason: domain.ReasonInvalidCustomer, FieldErrors: problems}, nil
	}

	lines := cart.Items()
	if len(lines) == 0 {
		e.metrics.RecordCheckout(metrics.CheckoutRejected, string(domain.ReasonEmptyCart), time.Since(start))
		return domain.Order{}, domain.CheckoutResult{Reason: domain.ReasonEmptyCart}, nil
	}

	validation, err := e.ValidateStock(ctx, lines)
	if err != nil {
		return domain.Order{}, domain.CheckoutResult{}, err
	}
	if !validation.OK {
		return domain.Order{}, e.reject("", domain.ReasonStockConflict, validation.Items, start), nil
	}

	order, err := cart.ToOrder(ctx, customer)
	if err != nil {
		return domain.Order{}, domain.CheckoutResult{}, fmt.Errorf("build order: %w", err)
	}

	result, err := e.ProcessOrder(ctx, order)
	if err != nil || !result.Success {
		return domain.Order{}, result, err
	}

	// Заказ уже в журнале: сбой очистки корзины или обновления каталога
	// не отменяет оформление.
	if err := cart.Clear(ctx); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to clear cart after checkout")
	}
	if e.catalog != nil {
		if _, err := e.catalog.Refresh(ctx); err != nil {
			e.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to refresh catalog after checkout")
		}
	}
	return order, result, nil
}

// Orders возвращает журнал заказов.
func (e *Engine) Orders(ctx context.Context) ([]domain.Order, error) {
	return e.orders.List(ctx)
}

// Order возвращает заказ по ID или ErrOrderNotFound.
func (e *Engine) Order(ctx context.Context, id string) (domain.Order, error) {
	return e.orders.Get(ctx, id)
}

func (e *Engine) reject(orderID string, reason domain.Reason, items []domain.ItemOutcome, start time.Time) domain.CheckoutResult {
	result := domain.CheckoutResult{Reason: reason, Items: items}

	e.logger.WithFields(log.Fields{
		"order_id": orderID,
		"reason":   reason,
	}).Info("checkout rejected")
	e.metrics.RecordCheckout(metrics.CheckoutRejected, string(reason), time.Since(start))
	e.publish(kafka.TopicOrderEvents, orderID, kafka.NewCheckoutRejectedEvent(orderID, result))
	return result
}

// restore возвращает на склад уже списанные позиции.
func (e *Engine) restore(ctx context.Context, logger *log.Entry, orderID string, items []domain.LineItem) {
	if !e.compensate || len(items) == 0 {
		return
	}
	if err := e.ledger.IncrementStock(ctx, items); err != nil {
		logger.WithError(err).Error("failed to restore stock")
		return
	}
	e.metrics.RecordCompensation()
	logger.WithField("items", len(items)).Warn("stock restored after failed checkout")
	e.publish(kafka.TopicOrderEvents, orderID, kafka.NewStockCompensatedEvent(orderID, items))
}

// publish отправляет событие, если publisher настроен. Ошибка публикации
// логируется и не прерывает оформление.
func (e *Engine) publish(topic, key string, event interface{}) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEvent(topic, key, event); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"topic":    topic,
			"order_id": key,
		}).Warn("failed to publish checkout event")
	}
}
