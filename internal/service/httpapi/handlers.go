package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

type errorResponse struct {
	Error  string        `json:"error"`
	Reason domain.Reason `json:"reason,omitempty"`
}

type lineRequest struct {
	ProductID string `json:"productId"`
	Qty       any    `json:"qty"`
}

type qtyRequest struct {
	Qty any `json:"qty"`
}

type stockRequest struct {
	Stock any `json:"stock"`
}

type restockRequest struct {
	Items []lineRequest `json:"items"`
}

type checkoutRequest struct {
	Customer domain.Customer `json:"customer"`
}

type cartLine struct {
	domain.LineItem
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type cartResponse struct {
	Items []cartLine `json:"items"`
	Count int        `json:"count"`
	domain.Totals
}

type orderResponse struct {
	domain.CheckoutResult
	Order *domain.Order `json:"order,omitempty"`
}

// statusFor переводит код отказа в HTTP-статус.
func statusFor(reason domain.Reason) int {
	switch reason {
	case domain.ReasonInvalidQuantity, domain.ReasonInvalidCustomer, domain.ReasonEmptyCart:
		return http.StatusUnprocessableEntity
	case domain.ReasonProductNotFound, domain.ReasonNotInCart:
		return http.StatusNotFound
	case domain.ReasonInsufficientStock, domain.ReasonStockConflict, domain.ReasonDecrementFailed:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// fail отвечает на ошибку инфраструктуры или ошибку валидации входа.
func (h *api) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Reason: domain.ReasonInvalidQuantity})
	case errors.Is(err, domain.ErrInvalidProduct):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *api) badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid input"})
}

func (h *api) result(c *gin.Context, res domain.Result, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Success {
		c.JSON(statusFor(res.Reason), res)
		return
	}
	h.getCart(c)
}

func (h *api) listProducts(c *gin.Context) {
	if h.Catalog.Stale() {
		if _, err := h.Catalog.Refresh(c.Request.Context()); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, h.Catalog.Filter(domain.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	}))
}

func (h *api) getProduct(c *gin.Context) {
	product, ok := h.Catalog.ByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "product not found", Reason: domain.ReasonProductNotFound})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *api) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.Categories())
}

func (h *api) refreshCatalog(c *gin.Context) {
	products, err := h.Catalog.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": len(products), "refreshedAt": h.Catalog.RefreshedAt()})
}

func (h *api) getCart(c *gin.Context) {
	ctx := c.Request.Context()

	lines := h.Cart.Items()
	products, err := h.Ledger.Products(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	totals, err := h.Cart.Totals(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]cartLine, 0, len(lines))
	for _, line := range lines {
		item := cartLine{LineItem: line}
		if idx := domain.FindProduct(products, line.ProductID); idx >= 0 {
			item.Name = products[idx].Name
			item.UnitPrice = products[idx].Price
			item.LineTotal = products[idx].Price * float64(line.Qty)
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, cartResponse{Items: items, Count: domain.TotalQty(lines), Totals: totals})
}

func (h *api) addCartItem(c *gin.Context) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c)
		return
	}
	res, err := h.Cart.AddItem(c.Request.Context(), req.ProductID, domain.CoerceQuantity(req.Qty))
	h.result(c, res, err)
}

func (h *api) updateCartItem(c *gin.Context) {
	var req qtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c)
		return
	}
	res, err := h.Cart.UpdateQuantity(c.Request.Context(), c.Param("productId"), domain.CoerceQuantity(req.Qty))
	h.result(c, res, err)
}

func (h *api) removeCartItem(c *gin.Context) {
	removed, err := h.Cart.RemoveItem(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, domain.Failed(domain.ReasonNotInCart))
		return
	}
	h.getCart(c)
}

func (h *api) clearCart(c *gin.Context) {
	if err := h.Cart.Clear(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.getCart(c)
}

func (h *api) validateCheckout(c *gin.Context) {
	validation, err := h.Checkout.ValidateStock(c.Request.Context(), h.Cart.Items())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, validation)
}

// placeOrder оформляет корзину. С заголовком Idempotency-Key повторный запрос
// с тем же телом получает сохранённый ответ, а не второй заказ.
func (h *api) placeOrder(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.badRequest(c)
		return
	}
	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.badRequest(c)
		return
	}

	key := c.GetHeader(idempotencyHeader)
	if key == "" || h.Guard == nil {
		status, payload := h.checkout(c, req)
		c.JSON(status, payload)
		return
	}

	replay, err := h.Guard.Begin(key, idempotency.RequestHash(body))
	switch {
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, idempotency.ErrInProgress):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case err != nil:
		h.fail(c, err)
		return
	case replay != nil:
		c.Header("Idempotent-Replay", "true")
		c.Data(replay.Status, "application/json; charset=utf-8", replay.Body)
		return
	}

	status, payload := h.checkout(c, req)
	raw, err := json.Marshal(payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Guard.Complete(key, status, raw)
	c.Data(status, "application/json; charset=utf-8", raw)
}

func (h *api) checkout(c *gin.Context, req checkoutRequest) (int, interface{}) {
	order, result, err := h.Checkout.Checkout(c.Request.Context(), h.Cart, req.Customer)
	if err != nil {
		_ = c.Error(err)
		h.Logger.WithError(err).Error("checkout failed")
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
	if !result.Success {
		return statusFor(result.Reason), orderResponse{CheckoutResult: result}
	}

	h.Logger.WithFields(log.Fields{"order_id": order.ID, "total": order.Totals.Total}).Info("checkout completed")
	return http.StatusCreated, orderResponse{CheckoutResult: result, Order: &order}
}

func (h *api) listOrders(c *gin.Context) {
	orders, err := h.Checkout.Orders(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *api) getOrder(c *gin.Context) {
	order, err := h.Checkout.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *api) setStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c)
		return
	}
	value, ok := domain.ToQuantity(domain.CoerceQuantity(req.Stock))
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, domain.Failed(domain.ReasonInvalidQuantity))
		return
	}

	ctx := c.Request.Context()
	found, err := h.Ledger.SetStock(ctx, c.Param("productId"), value)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, domain.Failed(domain.ReasonProductNotFound))
		return
	}
	h.refreshAfterStockChange(c)
	stock, err := h.Ledger.GetStock(ctx, c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": c.Param("productId"), "stock": stock})
}

func (h *api) restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		h.badRequest(c)
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		qty, ok := domain.ToQuantity(domain.CoerceQuantity(it.Qty))
		if !ok || qty == 0 {
			c.JSON(http.StatusUnprocessableEntity, domain.Failed(domain.ReasonInvalidQuantity))
			return
		}
		items = append(items, domain.LineItem{ProductID: it.ProductID, Qty: qty})
	}

	if err := h.Ledger.IncrementStock(c.Request.Context(), items); err != nil {
		h.fail(c, err)
		return
	}
	h.refreshAfterStockChange(c)
	c.JSON(http.StatusOK, h.Catalog.All())
}

func (h *api) updateProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		h.badRequest(c)
		return
	}
	product.ID = c.Param("id")

	ctx := c.Request.Context()
	if h.Catalog.Stale() {
		if _, err := h.Catalog.Refresh(ctx); err != nil {
			h.fail(c, err)
			return
		}
	}
	updated, err := h.Catalog.UpdateProduct(ctx, product)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, domain.Failed(domain.ReasonProductNotFound))
		return
	}
	c.JSON(http.StatusOK, product)
}

// refreshAfterStockChange перечитывает кэш каталога после изменения остатков.
// Сбой оставляет кэш помеченным как устаревший.
func (h *api) refreshAfterStockChange(c *gin.Context) {
	h.Catalog.MarkStale()
	if _, err := h.Catalog.Refresh(c.Request.Context()); err != nil {
		h.Logger.WithError(err).Warn("failed to refresh catalog after stock change")
	}
}
