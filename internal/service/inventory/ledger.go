// Package inventory — складской журнал: единственный владелец остатков каталога.
package inventory

import (
	"context"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/dataset"
)

// Option настраивает Ledger.
type Option func(*Ledger)

// WithLogger задаёт logger журнала.
func WithLogger(logger *log.Entry) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics включает метрики списаний.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// Ledger читает и пишет датасет products. Каждая операция — один цикл
// "прочитать целиком, изменить в памяти, записать целиком" под общим мьютексом.
type Ledger struct {
	mu      sync.Mutex
	store   domain.Store
	logger  *log.Entry
	metrics *metrics.StorefrontMetrics
}

// NewLedger создаёт журнал остатков поверх хранилища.
func NewLedger(store domain.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: log.New().WithField("component", "inventory"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetStock возвращает остаток товара. Отсутствующий товар — ErrProductNotFound, а не 0.
func (l *Ledger) GetStock(ctx context.Context, productID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	products, err := dataset.LoadProducts(ctx, l.store)
	if err != nil {
		return 0, err
	}
	idx := domain.FindProduct(products, productID)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return products[idx].Stock, nil
}

// IsAvailable сообщает, можно ли взять qty единиц товара. NaN, qty <= 0 и
// отсутствующий товар дают false без ошибки.
func (l *Ledger) IsAvailable(ctx context.Context, productID string, qty float64) (bool, error) {
	stock, err := l.GetStock(ctx, productID)
	if domain.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if math.IsNaN(qty) || qty <= 0 {
		return false, nil
	}
	return qty <= float64(stock), nil
}

// DecrementStock списывает батч по одному снимку каталога. Позиции проверяются
// по порядку, и повтор одного товара в батче видит уже уменьшенный остаток.
// Не прошедшие позиции не меняют остаток; снимок сохраняется один раз в конце.
func (l *Ledger) DecrementStock(ctx context.Context, items []domain.LineItem) (domain.DecrementResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	products, err := dataset.LoadProducts(ctx, l.store)
	if err != nil {
		return domain.DecrementResult{}, err
	}

	result := domain.DecrementResult{
		Success: true,
		Items:   make([]domain.ItemOutcome, 0, len(items)),
	}
	for _, item := range items {
		outcome := decrementOne(products, item)
		if !outcome.OK {
			result.Success = false
			l.metrics.RecordStockItem(string(outcome.Reason))
		} else {
			l.metrics.RecordStockItem("ok")
		}
		result.Items = append(result.Items, outcome)
	}

	if err := dataset.SaveProducts(ctx, l.store, products); err != nil {
		l.logger.WithError(err).WithField("items", len(items)).Error("failed to persist stock decrement")
		return result, err
	}

	if !result.Success {
		l.logger.WithField("items", len(items)).Debug("stock decrement partially rejected")
	}
	return result, nil
}

func decrementOne(products []domain.Product, item domain.LineItem) domain.ItemOutcome {
	outcome := domain.ItemOutcome{ProductID: item.ProductID}

	if item.Qty <= 0 {
		outcome.Reason = domain.ReasonInvalidQuantity
		return outcome
	}
	idx := domain.FindProduct(products, item.ProductID)
	if idx < 0 {
		outcome.Reason = domain.ReasonProductNotFound
		return outcome
	}
	current := &products[idx]
	if item.Qty > current.Stock {
		outcome.Reason = domain.ReasonInsufficientStock
		outcome.Available = domain.IntPtr(current.Stock)
		return outcome
	}

	current.Stock -= item.Qty
	outcome.OK = true
	return outcome
}

// IncrementStock безусловно возвращает количество на склад (restock, компенсация).
// Отсутствующие товары пропускаются. Отрицательное количество или переполнение
// остатка отклоняет пакет целиком.
func (l *Ledger) IncrementStock(ctx context.Context, items []domain.LineItem) error {
	for _, item := range items {
		if item.Qty < 0 || item.Qty > domain.MaxStock {
			return fmt.Errorf("%w: %s: %d", domain.ErrInvalidQuantity, item.ProductID, item.Qty)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	products, err := dataset.LoadProducts(ctx, l.store)
	if err != nil {
		return err
	}
	for _, item := range items {
		idx := domain.FindProduct(products, item.ProductID)
		if idx < 0 {
			l.logger.WithField("product_id", item.ProductID).Debug("increment skipped: product not found")
			continue
		}
		if products[idx].Stock > domain.MaxStock-item.Qty {
			return fmt.Errorf("%w: %s: stock %d cannot grow by %d",
				domain.ErrInvalidQuantity, item.ProductID, products[idx].Stock, item.Qty)
		}
		products[idx].Stock += item.Qty
	}
	return dataset.SaveProducts(ctx, l.store, products)
}

// SetStock задаёт остаток абсолютным значением. false — товара нет.
func (l *Ledger) SetStock(ctx context.Context, productID string, value int) (bool, error) {
	if value < 0 || value > domain.MaxStock {
		return false, fmt.Errorf("%w: stock must be in [0, %d], got %d", domain.ErrInvalidQuantity, domain.MaxStock, value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	products, err := dataset.LoadProducts(ctx, l.store)
	if err != nil {
		return false, err
	}
	idx := domain.FindProduct(products, productID)
	if idx < 0 {
		return false, nil
	}
	products[idx].Stock = value
	if err := dataset.SaveProducts(ctx, l.store, products); err != nil {
		return false, err
	}

	l.logger.WithFields(log.Fields{"product_id": productID, "stock": value}).Info("stock set")
	return true, nil
}

// Products возвращает текущий каталог вместе с остатками.
func (l *Ledger) Products(ctx context.Context) ([]domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return dataset.LoadProducts(ctx, l.store)
}

// UpdateProduct заменяет запись товара целиком. false — товара с таким ID нет.
func (l *Ledger) UpdateProduct(ctx context.Context, product domain.Product) (bool, error) {
	if err := product.Validate(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	products, err := dataset.LoadProducts(ctx, l.store)
	if err != nil {
		return false, err
	}
	idx := domain.FindProduct(products, product.ID)
	if idx < 0 {
		return false, nil
	}
	products[idx] = product
	if err := dataset.SaveProducts(ctx, l.store, products); err != nil {
		return false, err
	}
	return true, nil
}

var _ domain.StockLedger = (*Ledger)(nil)
