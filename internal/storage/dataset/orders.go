package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OrderLog журнал заказов поверх датасета orders.
type OrderLog struct {
	mu    sync.Mutex
	store domain.Store
}

// NewOrderLog создаёт журнал заказов поверх хранилища.
func NewOrderLog(store domain.Store) *OrderLog {
	return &OrderLog{store: store}
}

// Init записывает пустой журнал, если датасет ещё не создан. true — журнал был создан.
func (l *OrderLog) Init(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	found, err := Exists(ctx, l.store, domain.DatasetOrders)
	if err != nil || found {
		return false, err
	}
	if err := write(ctx, l.store, domain.DatasetOrders, []domain.Order{}); err != nil {
		return false, err
	}
	return true, nil
}

// Append дописывает заказ в конец журнала. Повтор ID отклоняется с ErrOrderExists.
func (l *OrderLog) Append(ctx context.Context, order domain.Order) error {
	if order.ID == "" {
		return domain.ErrOrderIDRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	orders, err := l.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range orders {
		if existing.ID == order.ID {
			return fmt.Errorf("%w: %s", domain.ErrOrderExists, order.ID)
		}
	}

	return write(ctx, l.store, domain.DatasetOrders, append(orders, order))
}

// List возвращает все заказы в порядке оформления.
func (l *OrderLog) List(ctx context.Context) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Get возвращает заказ по ID или ErrOrderNotFound.
func (l *OrderLog) Get(ctx context.Context, id string) (domain.Order, error) {
	orders, err := l.List(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	for _, order := range orders {
		if order.ID == id {
			return order, nil
		}
	}
	return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
}

func (l *OrderLog) load(ctx context.Context) ([]domain.Order, error) {
	raw, found, err := read(ctx, l.store, domain.DatasetOrders)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Order{}, nil
	}

	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, corrupt(domain.DatasetOrders, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

var _ domain.OrderLog = (*OrderLog)(nil)
