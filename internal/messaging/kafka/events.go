package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// EventType определяет тип события витрины.
type EventType string

const (
	// EventTypeOrderPlaced заказ записан в журнал, остатки списаны.
	EventTypeOrderPlaced EventType = "order.placed"
	// EventTypeCheckoutRejected оформление отклонено с кодом причины.
	EventTypeCheckoutRejected EventType = "checkout.rejected"
	// EventTypeStockCompensated частично списанные остатки возвращены на склад.
	EventTypeStockCompensated EventType = "stock.compensated"
	// EventTypeCartUpdated снимок корзины после изменения.
	EventTypeCartUpdated EventType = "cart.updated"
)

// Topics для Kafka.
const (
	TopicOrderEvents = "storefront.order.events"
	TopicCartEvents  = "storefront.cart.events"
)

// HeaderEventType дублирует тип события в заголовке сообщения.
const HeaderEventType = "x-event-type"

// Typed реализуют события, тип которых попадает в заголовок сообщения.
type Typed interface {
	Type() EventType
}

// OrderEvent описывает исход оформления заказа.
type OrderEvent struct {
	EventType EventType            `json:"event_type"`
	OrderID   string               `json:"order_id,omitempty"`
	Reason    domain.Reason        `json:"reason,omitempty"`
	Items     []domain.LineItem    `json:"items,omitempty"`
	Outcomes  []domain.ItemOutcome `json:"per_item,omitempty"`
	Total     float64              `json:"total,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Type возвращает тип события.
func (e *OrderEvent) Type() EventType { return e.EventType }

// NewOrderPlacedEvent создаёт событие о записанном заказе.
func NewOrderPlacedEvent(order domain.Order) *OrderEvent {
	return &OrderEvent{
		EventType: EventTypeOrderPlaced,
		OrderID:   order.ID,
		Items:     order.LineItems(),
		Total:     order.Totals.Total,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckoutRejectedEvent создаёт событие об отказе в оформлении.
func NewCheckoutRejectedEvent(orderID string, result domain.CheckoutResult) *OrderEvent {
	return &OrderEvent{
		EventType: EventTypeCheckoutRejected,
		OrderID:   orderID,
		Reason:    result.Reason,
		Outcomes:  result.Items,
		Timestamp: time.Now().UTC(),
	}
}

// NewStockCompensatedEvent создаёт событие о возврате остатков.
func NewStockCompensatedEvent(orderID string, restored []domain.LineItem) *OrderEvent {
	return &OrderEvent{
		EventType: EventTypeStockCompensated,
		OrderID:   orderID,
		Items:     restored,
		Timestamp: time.Now().UTC(),
	}
}

// CartEvent снимок корзины после изменения.
type CartEvent struct {
	EventType EventType         `json:"event_type"`
	Lines     []domain.LineItem `json:"lines"`
	Count     int               `json:"count"`
	Timestamp time.Time         `json:"timestamp"`
}

// Type возвращает тип события.
func (e *CartEvent) Type() EventType { return e.EventType }

// NewCartUpdatedEvent создаёт событие со снимком корзины.
func NewCartUpdatedEvent(lines []domain.LineItem) *CartEvent {
	if lines == nil {
		lines = []domain.LineItem{}
	}
	return &CartEvent{
		EventType: EventTypeCartUpdated,
		Lines:     lines,
		Count:     domain.TotalQty(lines),
		Timestamp: time.Now().UTC(),
	}
}
