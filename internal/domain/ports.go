package domain

import (
	"context"
	"time"
)

// Store долговременное отображение имени датасета на его JSON-значение.
// Значение всегда читается и записывается целиком.
type Store interface {
	// Read возвращает сохранённое значение или ErrDatasetNotFound.
	Read(ctx context.Context, dataset Dataset) ([]byte, error)
	// Write заменяет значение датасета целиком.
	Write(ctx context.Context, dataset Dataset, data []byte) error
	// Close освобождает ресурсы хранилища.
	Close() error
}

// Pinger реализуют хранилища, которые умеют проверять доступность бэкенда.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StockLedger авторитетный источник остатков по товарам.
type StockLedger interface {
	// GetStock возвращает остаток или ErrProductNotFound; отсутствие товара не равно нулевому остатку.
	GetStock(ctx context.Context, productID string) (int, error)
	// DecrementStock списывает батч по одному снимку каталога и сохраняет его один раз.
	DecrementStock(ctx context.Context, items []LineItem) (DecrementResult, error)
	// IncrementStock безусловно возвращает количество на склад (restock/компенсация).
	IncrementStock(ctx context.Context, items []LineItem) error
	// Products возвращает текущий каталог.
	Products(ctx context.Context) ([]Product, error)
}

// OrderLog журнал оформленных заказов, только добавление.
type OrderLog interface {
	Append(ctx context.Context, order Order) error
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
}

// EventPublisher публикует доменные события во внешний брокер.
type EventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}
