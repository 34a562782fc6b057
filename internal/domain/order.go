package domain

import (
	"math"
	"time"
)

// DefaultTaxRate плоская ставка налога, применяемая к подытогу корзины.
const DefaultTaxRate = 0.10

// moneyEpsilon допуск при сравнении денежных сумм с плавающей точкой.
const moneyEpsilon = 1e-9

// OrderLine денормализованный снимок позиции на момент оформления.
// Цена и название фиксируются, чтобы правки каталога не меняли историю заказов.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
	Name      string  `json:"name"`
}

// Totals итоговые суммы заказа.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Order оформленный заказ. После создания не изменяется, только добавляется в журнал.
type Order struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Customer  Customer    `json:"customer"`
	Items     []OrderLine `json:"items"`
	Totals    Totals      `json:"totals"`
}

// ComputeTotals считает налог и итог по подытогу и ставке.
func ComputeTotals(subtotal, taxRate float64) Totals {
	tax := subtotal * taxRate
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// LineItems возвращает позиции заказа в виде батча для склада.
func (o *Order) LineItems() []LineItem {
	items := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItem{ProductID: it.ProductID, Qty: it.Qty})
	}
	return items
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	// Сверяем подытог с суммой позиций: unitPrice * qty.
	var calc float64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if !moneyEqual(item.LineTotal, item.UnitPrice*float64(item.Qty)) {
			errs = append(errs, ErrLineTotalMismatch)
		}
		calc += item.LineTotal
	}
	if !moneyEqual(calc, o.Totals.Subtotal) || !moneyEqual(o.Totals.Total, o.Totals.Subtotal+o.Totals.Tax) {
		errs = append(errs, ErrTotalsMismatch)
	}

	return errs
}

func moneyEqual(a, b float64) bool {
	return math.Abs(a-b) <= moneyEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
