package domain

import (
	"fmt"
	"strings"
)

// Product товар каталога. Stock — единственный авторитетный сигнал доступности,
// его меняет только складской журнал (inventory.Ledger).
type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Category    string  `json:"category,omitempty" yaml:"category"`
	SKU         string  `json:"sku,omitempty" yaml:"sku"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int     `json:"stock" yaml:"stock"`
	Image       string  `json:"image,omitempty" yaml:"image"`
}

// ProductFilter задаёт параметры поиска по каталогу.
type ProductFilter struct {
	// Query ищется как подстрока в name, description и sku без учёта регистра.
	Query string
	// Category, если задана, должна совпадать с категорией товара точно.
	Category string
}

// Validate проверяет инварианты товара: непустой ID, price >= 0, stock >= 0.
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	case p.Price < 0:
		return fmt.Errorf("%w: %s: price must be non-negative", ErrInvalidProduct, p.ID)
	case p.Stock < 0:
		return fmt.Errorf("%w: %s: stock must be non-negative", ErrInvalidProduct, p.ID)
	}
	return nil
}

// FindProduct возвращает индекс товара в срезе или -1.
func FindProduct(products []Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneProducts копирует срез, чтобы вызывающий код не делил память с кэшем.
func CloneProducts(src []Product) []Product {
	if src == nil {
		return []Product{}
	}
	dst := make([]Product, len(src))
	copy(dst, src)
	return dst
}
