// Package cart реализует корзину покупателя: позиции сверяются с остатками
// склада при каждом изменении и сразу записываются в хранилище.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/dataset"
)

// Listener получает полный список позиций после каждого успешного изменения корзины.
type Listener func(lines []domain.LineItem)

// Option настраивает Cart.
type Option func(*Cart)

// WithTaxRate задаёт ставку налога для Totals и ToOrder.
func WithTaxRate(rate float64) Option {
	return func(c *Cart) {
		if rate >= 0 {
			c.taxRate = rate
		}
	}
}

// WithLogger задаёт logger корзины.
func WithLogger(logger *log.Entry) Option {
	return func(c *Cart) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics включает метрики операций корзины.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(c *Cart) {
		c.metrics = m
	}
}

// Cart единственный владелец позиций корзины и единственный писатель датасета cart.
type Cart struct {
	mu     sync.Mutex
	store  domain.Store
	ledger domain.StockLedger
	lines  []domain.LineItem

	taxRate float64
	now     func() time.Time

	listeners  map[int]Listener
	listenerID int

	logger  *log.Entry
	metrics *metrics.StorefrontMetrics
}

// New восстанавливает корзину из хранилища. Позиции с qty <= 0 и повторы
// одного товара отбрасываются (остаётся первая позиция).
func New(ctx context.Context, store domain.Store, ledger domain.StockLedger, opts ...Option) (*Cart, error) {
	c := &Cart{
		store:     store,
		ledger:    ledger,
		taxRate:   domain.DefaultTaxRate,
		now:       func() time.Time { return time.Now().UTC() },
		listeners: make(map[int]Listener),
		logger:    log.New().WithField("component", "cart"),
	}
	for _, opt := range opts {
		opt(c)
	}

	persisted, err := dataset.LoadCart(ctx, store)
	if err != nil {
		return nil, err
	}
	c.lines = reconcile(persisted)
	if dropped := len(persisted) - len(c.lines); dropped > 0 {
		c.logger.WithField("dropped", dropped).Warn("persisted cart contained invalid lines")
	}
	return c, nil
}

func reconcile(persisted []domain.LineItem) []domain.LineItem {
	lines := make([]domain.LineItem, 0, len(persisted))
	seen := make(map[string]struct{}, len(persisted))
	for _, line := range persisted {
		if line.Qty <= 0 || line.ProductID == "" {
			continue
		}
		if _, dup := seen[line.ProductID]; dup {
			continue
		}
		seen[line.ProductID] = struct{}{}
		lines = append(lines, line)
	}
	return lines
}

// AddItem добавляет qty единиц товара, объединяя с существующей позицией.
// Сумма в корзине не может превысить текущий остаток.
func (c *Cart) AddItem(ctx context.Context, productID string, qty float64) (domain.Result, error) {
	return c.mutate(ctx, "add", func(lines []domain.LineItem) ([]domain.LineItem, domain.Result, error) {
		n, ok := domain.ToQuantity(qty)
		if !ok || n == 0 {
			return nil, domain.Failed(domain.ReasonInvalidQuantity), nil
		}
		available, res, err := c.stock(ctx, productID)
		if err != nil || !res.Success {
			return nil, res, err
		}

		idx := indexOf(lines, productID)
		inCart := 0
		if idx >= 0 {
			inCart = lines[idx].Qty
		}
		if inCart+n > available {
			return nil, domain.FailedWithAvailable(domain.ReasonInsufficientStock, available), nil
		}

		if idx >= 0 {
			lines[idx].Qty += n
		} else {
			lines = append(lines, domain.LineItem{ProductID: productID, Qty: n})
		}
		return lines, domain.Succeeded(), nil
	})
}

// UpdateQuantity заменяет количество позиции; 0 удаляет её. Новое значение
// сверяется с текущим остатком, а не с прежним количеством в корзине.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty float64) (domain.Result, error) {
	return c.mutate(ctx, "update", func(lines []domain.LineItem) ([]domain.LineItem, domain.Result, error) {
		n, ok := domain.ToQuantity(qty)
		if !ok {
			return nil, domain.Failed(domain.ReasonInvalidQuantity), nil
		}
		idx := indexOf(lines, productID)
		if idx < 0 {
			return nil, domain.Failed(domain.ReasonNotInCart), nil
		}
		available, res, err := c.stock(ctx, productID)
		if err != nil || !res.Success {
			return nil, res, err
		}

		if n > available {
			return nil, domain.FailedWithAvailable(domain.ReasonInsufficientStock, available), nil
		}

		if n == 0 {
			return append(lines[:idx], lines[idx+1:]...), domain.Succeeded(), nil
		}
		lines[idx].Qty = n
		return lines, domain.Succeeded(), nil
	})
}

// RemoveItem удаляет позицию; true — позиция была в корзине.
func (c *Cart) RemoveItem(ctx context.Context, productID string) (bool, error) {
	res, err := c.mutate(ctx, "remove", func(lines []domain.LineItem) ([]domain.LineItem, domain.Result, error) {
		idx := indexOf(lines, productID)
		if idx < 0 {
			return nil, domain.Failed(domain.ReasonNotInCart), nil
		}
		return append(lines[:idx], lines[idx+1:]...), domain.Succeeded(), nil
	})
	return res.Success, err
}

// Clear безусловно очищает корзину.
func (c *Cart) Clear(ctx context.Context) error {
	_, err := c.mutate(ctx, "clear", func([]domain.LineItem) ([]domain.LineItem, domain.Result, error) {
		return []domain.LineItem{}, domain.Succeeded(), nil
	})
	return err
}

// Items возвращает копию позиций в порядке добавления.
func (c *Cart) Items() []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CloneLines(c.lines)
}

// Qty возвращает количество товара в корзине или 0.
func (c *Cart) Qty(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := indexOf(c.lines, productID); idx >= 0 {
		return c.lines[idx].Qty
	}
	return 0
}

// Count сумма количеств по всем позициям.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.TotalQty(c.lines)
}

// IsEmpty сообщает, что в корзине нет позиций.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// TaxRate возвращает ставку налога корзины.
func (c *Cart) TaxRate() float64 {
	return c.taxRate
}

// Subscribe регистрирует слушателя изменений; возвращённая функция отменяет подписку.
func (c *Cart) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.listenerID++
	id := c.listenerID
	c.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.listeners, id)
		})
	}
}

type mutation func(lines []domain.LineItem) ([]domain.LineItem, domain.Result, error)

// mutate выполняет изменение над копией позиций. Позиции в памяти меняются
// только после успешной записи; слушатели вызываются вне блокировки.
func (c *Cart) mutate(ctx context.Context, op string, fn mutation) (domain.Result, error) {
	c.mu.Lock()

	next, res, err := fn(domain.CloneLines(c.lines))
	if err != nil {
		c.mu.Unlock()
		c.metrics.RecordCartMutation(op, "error")
		return domain.Result{}, err
	}
	if !res.Success {
		c.mu.Unlock()
		c.metrics.RecordCartMutation(op, string(res.Reason))
		return res, nil
	}

	if err := dataset.SaveCart(ctx, c.store, next); err != nil {
		c.mu.Unlock()
		c.metrics.RecordCartMutation(op, "error")
		c.logger.WithError(err).WithField("operation", op).Error("failed to persist cart")
		return domain.Result{}, err
	}
	c.lines = next

	snapshot := domain.CloneLines(next)
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	c.metrics.RecordCartMutation(op, "ok")
	for _, l := range listeners {
		l(domain.CloneLines(snapshot))
	}
	return res, nil
}

// stock читает остаток; отсутствие товара превращается в бизнес-отказ.
func (c *Cart) stock(ctx context.Context, productID string) (int, domain.Result, error) {
	available, err := c.ledger.GetStock(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return 0, domain.Failed(domain.ReasonProductNotFound), nil
	}
	if err != nil {
		return 0, domain.Result{}, err
	}
	return available, domain.Succeeded(), nil
}

func indexOf(lines []domain.LineItem, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func newOrderID() string {
	return "ORD-" + uuid.NewString()
}
