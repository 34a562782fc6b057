// Package httpapi публикует корзину, каталог, склад и оформление заказа по HTTP (gin).
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
)

// Deps зависимости HTTP API. Guard и Metrics необязательны.
type Deps struct {
	Cart     *cart.Cart
	Ledger   *inventory.Ledger
	Catalog  *catalog.Cache
	Checkout *checkout.Engine
	Guard    *idempotency.Guard
	Metrics  *metrics.HTTPMetrics
	Logger   *log.Entry

	// CORSOrigins разрешённые origin; пусто — CORS не подключается.
	CORSOrigins []string
}

type api struct {
	Deps
}

// NewRouter собирает gin.Engine со всеми маршрутами /api.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = log.New().WithField("component", "http")
	}
	h := &api{Deps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger), observe(deps.Metrics))
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", idempotencyHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	public := r.Group("/api")
	{
		public.GET("/products", h.listProducts)
		public.GET("/products/:id", h.getProduct)
		public.GET("/categories", h.listCategories)
		public.POST("/catalog/refresh", h.refreshCatalog)

		public.GET("/cart", h.getCart)
		public.POST("/cart/items", h.addCartItem)
		public.PUT("/cart/items/:productId", h.updateCartItem)
		public.DELETE("/cart/items/:productId", h.removeCartItem)
		public.POST("/cart/clear", h.clearCart)

		public.POST("/checkout/validate", h.validateCheckout)
		public.POST("/checkout", h.placeOrder)

		public.GET("/orders", h.listOrders)
		public.GET("/orders/:id", h.getOrder)
	}

	admin := r.Group("/api/admin")
	{
		admin.PUT("/stock/:productId", h.setStock)
		admin.POST("/restock", h.restock)
		admin.PUT("/products/:id", h.updateProduct)
	}

	return r
}

// requestLogger пишет одну строку лога на запрос.
func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request failed")
			return
		}
		entry.Debug("request handled")
	}
}

// observe записывает метрики запроса по шаблону маршрута, а не по фактическому пути.
func observe(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
