package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// MockLedger конфигурируемая заглушка StockLedger для тестов оформления заказа.
// Держит каталог в памяти и умеет отклонять списание отдельных товаров,
// даже если проверка остатков перед этим прошла.
type MockLedger struct {
	mu sync.Mutex

	Catalog []domain.Product

	// RejectDecrement товары, списание которых отклоняется с insufficient_stock.
	RejectDecrement map[string]bool
	DecrementErr    error
	IncrementErr    error

	GetStockCalls  int
	DecrementCalls int
	IncrementCalls int
	Incremented    [][]domain.LineItem
}

// NewMockLedger возвращает mock с копией каталога и успешным сценарием по умолчанию.
func NewMockLedger(products ...domain.Product) *MockLedger {
	return &MockLedger{
		Catalog:         domain.CloneProducts(products),
		RejectDecrement: map[string]bool{},
	}
}

// GetStock возвращает остаток из каталога mock.
func (m *MockLedger) GetStock(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetStockCalls++
	idx := domain.FindProduct(m.Catalog, productID)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return m.Catalog[idx].Stock, nil
}

// DecrementStock списывает позиции, кроме перечисленных в RejectDecrement.
func (m *MockLedger) DecrementStock(_ context.Context, items []domain.LineItem) (domain.DecrementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DecrementCalls++
	if m.DecrementErr != nil {
		return domain.DecrementResult{}, m.DecrementErr
	}

	result := domain.DecrementResult{Success: true}
	for _, item := range items {
		idx := domain.FindProduct(m.Catalog, item.ProductID)
		switch {
		case idx < 0:
			result.Items = append(result.Items, domain.ItemOutcome{ProductID: item.ProductID, Reason: domain.ReasonProductNotFound})
			result.Success = false
		case m.RejectDecrement[item.ProductID]:
			result.Items = append(result.Items, domain.ItemOutcome{
				ProductID: item.ProductID,
				Reason:    domain.ReasonInsufficientStock,
				Available: domain.IntPtr(m.Catalog[idx].Stock),
			})
			result.Success = false
		default:
			m.Catalog[idx].Stock -= item.Qty
			result.Items = append(result.Items, domain.ItemOutcome{ProductID: item.ProductID, OK: true})
		}
	}
	return result, nil
}

// IncrementStock возвращает количество в каталог mock и запоминает батч.
func (m *MockLedger) IncrementStock(_ context.Context, items []domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IncrementCalls++
	if m.IncrementErr != nil {
		return m.IncrementErr
	}
	m.Incremented = append(m.Incremented, domain.CloneLines(items))
	for _, item := range items {
		if idx := domain.FindProduct(m.Catalog, item.ProductID); idx >= 0 {
			m.Catalog[idx].Stock += item.Qty
		}
	}
	return nil
}

// Products возвращает копию каталога mock.
func (m *MockLedger) Products(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneProducts(m.Catalog), nil
}

// Stock удобный доступ к остатку для проверок в тестах; -1 если товара нет.
func (m *MockLedger) Stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := domain.FindProduct(m.Catalog, productID); idx >= 0 {
		return m.Catalog[idx].Stock
	}
	return -1
}

var _ domain.StockLedger = (*MockLedger)(nil)
