package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// datasetStoreInMemory простая in-memory реализация Store.
type datasetStoreInMemory struct {
	mu    sync.RWMutex
	items map[domain.Dataset][]byte
}

// NewStore возвращает in-memory хранилище для локальной разработки и тестов.
func NewStore() *datasetStoreInMemory {
	return &datasetStoreInMemory{
		items: make(map[domain.Dataset][]byte),
	}
}

// Read возвращает копию значения или ErrDatasetNotFound.
func (s *datasetStoreInMemory) Read(ctx context.Context, dataset domain.Dataset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.items[dataset]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write заменяет значение датасета копией data.
func (s *datasetStoreInMemory) Write(ctx context.Context, dataset domain.Dataset, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !dataset.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	s.items[dataset] = append([]byte(nil), data...)
	return nil
}

// Ping всегда успешен.
func (s *datasetStoreInMemory) Ping(context.Context) error { return nil }

func (s *datasetStoreInMemory) Close() error { return nil }

var _ domain.Store = (*datasetStoreInMemory)(nil)
var _ domain.Pinger = (*datasetStoreInMemory)(nil)
