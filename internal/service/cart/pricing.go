package cart

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Subtotal сумма price * qty по текущим ценам каталога.
// Позиции, чьих товаров больше нет, дают 0.
func (c *Cart) Subtotal(ctx context.Context) (float64, error) {
	lines := c.Items()
	products, err := c.ledger.Products(ctx)
	if err != nil {
		return 0, err
	}
	return subtotal(lines, products), nil
}

// Tax возвращает налог с подытога по ставке rate.
func (c *Cart) Tax(ctx context.Context, rate float64) (float64, error) {
	sub, err := c.Subtotal(ctx)
	if err != nil {
		return 0, err
	}
	return sub * rate, nil
}

// Total возвращает подытог плюс налог по ставке rate.
func (c *Cart) Total(ctx context.Context, rate float64) (float64, error) {
	sub, err := c.Subtotal(ctx)
	if err != nil {
		return 0, err
	}
	return domain.ComputeTotals(sub, rate).Total, nil
}

// Totals считает итоги по ставке корзины за одно чтение каталога.
func (c *Cart) Totals(ctx context.Context) (domain.Totals, error) {
	sub, err := c.Subtotal(ctx)
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.ComputeTotals(sub, c.taxRate), nil
}

// ToOrder снимает заказ с текущей корзины: цены и названия фиксируются на
// момент вызова, название отсутствующего товара заменяется его ID.
func (c *Cart) ToOrder(ctx context.Context, customer domain.Customer) (domain.Order, error) {
	lines := c.Items()
	products, err := c.ledger.Products(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		item := domain.OrderLine{ProductID: line.ProductID, Qty: line.Qty, Name: line.ProductID}
		if idx := domain.FindProduct(products, line.ProductID); idx >= 0 {
			item.UnitPrice = products[idx].Price
			item.Name = products[idx].Name
		}
		item.LineTotal = item.UnitPrice * float64(item.Qty)
		items = append(items, item)
	}

	return domain.Order{
		ID:        newOrderID(),
		CreatedAt: c.now(),
		Customer:  customer.Normalize(),
		Items:     items,
		Totals:    domain.ComputeTotals(subtotal(lines, products), c.taxRate),
	}, nil
}

func subtotal(lines []domain.LineItem, products []domain.Product) float64 {
	var sum float64
	for _, line := range lines {
		if idx := domain.FindProduct(products, line.ProductID); idx >= 0 {
			sum += products[idx].Price * float64(line.Qty)
		}
	}
	return sum
}
