package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/dataset"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// DefaultProducts возвращает встроенный стартовый каталог.
func DefaultProducts() ([]domain.Product, error) {
	return ParseProducts(defaultCatalog)
}

// LoadFile читает каталог из YAML- или JSON-файла. Пустой путь — встроенный каталог.
func LoadFile(path string) ([]domain.Product, error) {
	if path == "" {
		return DefaultProducts()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	products, err := ParseProducts(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return products, nil
}

// ParseProducts разбирает список товаров (JSON — подмножество YAML) и проверяет каждый товар.
func ParseProducts(raw []byte) ([]domain.Product, error) {
	var products []domain.Product
	if err := yaml.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidProduct, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// SeedResult перечисляет датасеты, созданные при инициализации.
type SeedResult struct {
	Products bool
	Orders   bool
	Cart     bool
}

// Seed инициализирует хранилище: каталог записывается, только если датасета
// products ещё нет; orders и cart создаются пустыми. Повторный вызов ничего не меняет.
func Seed(ctx context.Context, store domain.Store, products []domain.Product, logger *log.Entry) (SeedResult, error) {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-seed")
	}

	var result SeedResult

	found, err := dataset.Exists(ctx, store, domain.DatasetProducts)
	if err != nil {
		return result, err
	}
	if !found {
		if err := dataset.SaveProducts(ctx, store, products); err != nil {
			return result, err
		}
		result.Products = true
		logger.WithField("products", len(products)).Info("catalog seeded")
	}

	result.Orders, err = dataset.NewOrderLog(store).Init(ctx)
	if err != nil {
		return result, err
	}

	found, err = dataset.Exists(ctx, store, domain.DatasetCart)
	if err != nil {
		return result, err
	}
	if !found {
		if err := dataset.SaveCart(ctx, store, nil); err != nil {
			return result, err
		}
		result.Cart = true
	}
	return result, nil
}
