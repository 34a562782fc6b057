// Package pebble хранит датасеты витрины во встроенном LSM-хранилище Pebble.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const keyPrefix = "storefront/"

// Store реализует domain.Store поверх pebble.DB. Каждый датасет — один ключ.
type Store struct {
	db *pebble.DB
}

// Open открывает (или создаёт) базу Pebble в каталоге dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("pebble dir is required")
	}

	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Store{db: db}, nil
}

// Read возвращает копию значения датасета.
func (s *Store) Read(ctx context.Context, dataset domain.Dataset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	value, closer, err := s.db.Get(key(dataset))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %s: %w", dataset, err)
	}
	defer closer.Close()

	// Срез value валиден только до closer.Close().
	return append([]byte(nil), value...), nil
}

// Write заменяет значение датасета и синхронизирует WAL.
func (s *Store) Write(ctx context.Context, dataset domain.Dataset, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !dataset.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	if err := s.db.Set(key(dataset), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", dataset, err)
	}
	return nil
}

// Ping проверяет, что база открыта и читается.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, closer, err := s.db.Get(key(domain.DatasetProducts))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return closer.Close()
}

// Close закрывает базу.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func key(dataset domain.Dataset) []byte {
	return []byte(keyPrefix + string(dataset))
}

var _ domain.Store = (*Store)(nil)
var _ domain.Pinger = (*Store)(nil)
