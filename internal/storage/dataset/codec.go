// Package dataset содержит типизированный доступ к датасетам хранилища:
// каталог, корзина и журнал заказов. Значение всегда читается целиком,
// меняется в памяти и записывается обратно целиком.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartDocument форма, в которой корзина лежит в хранилище.
type cartDocument struct {
	Items []domain.LineItem `json:"items"`
}

// storedProduct перекрывает Stock: в сохранённом каталоге остаток может быть
// не числом или дробным, такое значение читается как 0.
type storedProduct struct {
	domain.Product
	Stock any `json:"stock"`
}

// Exists сообщает, записан ли датасет в хранилище.
func Exists(ctx context.Context, store domain.Store, ds domain.Dataset) (bool, error) {
	_, found, err := read(ctx, store, ds)
	return found, err
}

// LoadProducts читает каталог. Отсутствующий датасет даёт пустой срез.
func LoadProducts(ctx context.Context, store domain.Store) ([]domain.Product, error) {
	raw, found, err := read(ctx, store, domain.DatasetProducts)
	if err != nil || !found {
		return []domain.Product{}, err
	}

	var stored []storedProduct
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, corrupt(domain.DatasetProducts, err)
	}

	products := make([]domain.Product, 0, len(stored))
	for _, sp := range stored {
		p := sp.Product
		p.Stock = stockValue(sp.Stock)
		products = append(products, p)
	}
	return products, nil
}

// SaveProducts записывает каталог целиком.
func SaveProducts(ctx context.Context, store domain.Store, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	return write(ctx, store, domain.DatasetProducts, products)
}

// LoadCart читает сохранённые позиции корзины как есть, без сверки.
func LoadCart(ctx context.Context, store domain.Store) ([]domain.LineItem, error) {
	raw, found, err := read(ctx, store, domain.DatasetCart)
	if err != nil || !found {
		return []domain.LineItem{}, err
	}

	var doc cartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, corrupt(domain.DatasetCart, err)
	}
	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}
	return doc.Items, nil
}

// SaveCart записывает корзину в виде {"items":[...]}.
func SaveCart(ctx context.Context, store domain.Store, lines []domain.LineItem) error {
	if lines == nil {
		lines = []domain.LineItem{}
	}
	return write(ctx, store, domain.DatasetCart, cartDocument{Items: lines})
}

func read(ctx context.Context, store domain.Store, ds domain.Dataset) ([]byte, bool, error) {
	raw, err := store.Read(ctx, ds)
	if errors.Is(err, domain.ErrDatasetNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w: %w", ds, domain.ErrStorage, err)
	}
	return raw, true, nil
}

func write(ctx context.Context, store domain.Store, ds domain.Dataset, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ds, err)
	}
	if err := store.Write(ctx, ds, raw); err != nil {
		return fmt.Errorf("write %s: %w: %w", ds, domain.ErrStorage, err)
	}
	return nil
}

func corrupt(ds domain.Dataset, err error) error {
	return fmt.Errorf("decode %s: %w: %v", ds, domain.ErrDatasetCorrupt, err)
}

// stockValue читает остаток товара. Нецелые, отрицательные и большие MaxStock
// значения читаются как 0.
func stockValue(v any) int {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < 0 || f > domain.MaxStock {
		return 0
	}
	return int(f)
}
