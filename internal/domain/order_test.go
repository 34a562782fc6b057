package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	return domain.Order{
		ID:        "ORD-1",
		CreatedAt: time.Now().UTC(),
		Customer:  domain.Customer{Name: "Ana", Email: "ana@example.com", Address: "Calle 1"},
		Items: []domain.OrderLine{
			{ProductID: "P1", Qty: 2, UnitPrice: 12.5, LineTotal: 25, Name: "Taza"},
		},
		Totals: domain.ComputeTotals(25, domain.DefaultTaxRate),
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{name: "no id", mut: func(o *domain.Order) { o.ID = "" }},
		{name: "no items", mut: func(o *domain.Order) { o.Items = nil }},
		{name: "qty invalid", mut: func(o *domain.Order) { o.Items[0].Qty = 0 }},
		{name: "price invalid", mut: func(o *domain.Order) { o.Items[0].UnitPrice = -5 }},
		{name: "line total mismatch", mut: func(o *domain.Order) { o.Items[0].LineTotal = 30 }},
		{name: "total mismatch", mut: func(o *domain.Order) { o.Totals.Total = 999 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			// Изменяем состояние согласно сценарию.
			tc.mut(&order)

			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestComputeTotals(t *testing.T) {
	totals := domain.ComputeTotals(100, 0.1)
	if totals.Tax != 10 || totals.Total != 110 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.Total != totals.Subtotal+totals.Tax {
		t.Fatal("total must equal subtotal + tax")
	}
}

func TestOrderLineItems(t *testing.T) {
	order := makeOrder()
	items := order.LineItems()
	if len(items) != 1 || items[0].ProductID != "P1" || items[0].Qty != 2 {
		t.Fatalf("unexpected line items: %+v", items)
	}
}
