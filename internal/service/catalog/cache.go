// Package catalog держит кэш каталога в памяти и заполняет хранилище
// стартовым каталогом.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Source авторитетный источник каталога (складской журнал).
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (bool, error)
}

// Option настраивает Cache.
type Option func(*Cache)

// WithLogger задаёт logger кэша.
func WithLogger(logger *log.Entry) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics включает метрики обновления кэша.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// Cache снимок каталога для чтения. Сам себя не обновляет: после операций,
// меняющих остатки, вызывающий код обязан вызвать Refresh.
type Cache struct {
	mu          sync.RWMutex
	source      Source
	products    []domain.Product
	refreshedAt time.Time
	dirty       bool

	now     func() time.Time
	logger  *log.Entry
	metrics *metrics.StorefrontMetrics
}

// NewCache создаёт пустой кэш. До первого Refresh он считается устаревшим.
func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		products: []domain.Product{},
		dirty:    true,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.New().WithField("component", "catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh перечитывает каталог из источника и возвращает копию.
func (c *Cache) Refresh(ctx context.Context) ([]domain.Product, error) {
	products, err := c.source.Products(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products = domain.CloneProducts(products)
	c.refreshedAt = c.now()
	c.dirty = false
	c.mu.Unlock()

	c.metrics.RecordCatalogRefresh(len(products))
	c.logger.WithField("products", len(products)).Debug("catalog refreshed")
	return domain.CloneProducts(products), nil
}

// All возвращает копию закэшированного каталога.
func (c *Cache) All() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CloneProducts(c.products)
}

// ByID возвращает копию товара из кэша.
func (c *Cache) ByID(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx := domain.FindProduct(c.products, id); idx >= 0 {
		return c.products[idx], true
	}
	return domain.Product{}, false
}

// Categories возвращает отсортированный список непустых категорий.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range c.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories
}

// Filter ищет товары по подстроке в name, description и sku и по точной категории.
// Пустой запрос проходит любой товар.
func (c *Cache) Filter(filter domain.ProductFilter) []domain.Product {
	fold := cases.Fold()
	query := fold.String(norm.NFC.String(strings.TrimSpace(filter.Query)))

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if query != "" {
			haystack := fold.String(norm.NFC.String(p.Name + " " + p.Description + " " + p.SKU))
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		matched = append(matched, p)
	}
	return matched
}

// UpdateProduct заменяет товар в кэше и сохраняет его через источник.
// false товара нет в кэше, источник при этом не вызывается.
func (c *Cache) UpdateProduct(ctx context.Context, product domain.Product) (bool, error) {
	if _, ok := c.ByID(product.ID); !ok {
		return false, nil
	}

	updated, err := c.source.UpdateProduct(ctx, product)
	if err != nil || !updated {
		return updated, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := domain.FindProduct(c.products, product.ID); idx >= 0 {
		c.products[idx] = product
	}
	return true, nil
}

// MarkStale помечает кэш устаревшим, например после изменения остатков в обход него.
func (c *Cache) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
}

// Stale сообщает, что кэш не обновлялся после последней пометки или ни разу.
func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// RefreshedAt возвращает время последнего обновления; нулевое — кэш не загружался.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}
