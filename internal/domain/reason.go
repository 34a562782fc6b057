package domain

// Reason код бизнес-отказа. Такие отказы возвращаются значением, а не ошибкой,
// и никогда не портят сохранённое состояние.
type Reason string

const (
	// ReasonInvalidQuantity количество не прошло проверку на целое положительное/неотрицательное.
	ReasonInvalidQuantity Reason = "invalid_quantity"
	// ReasonProductNotFound товара нет в каталоге.
	ReasonProductNotFound Reason = "product_not_found"
	// ReasonInsufficientStock запрошено больше, чем есть на складе; всегда несёт Available.
	ReasonInsufficientStock Reason = "insufficient_stock"
	// ReasonNotInCart изменение количества для позиции, которой нет в корзине.
	ReasonNotInCart Reason = "not_in_cart"
	// ReasonStockConflict повторная проверка остатков при оформлении не прошла.
	ReasonStockConflict Reason = "stock_conflict"
	// ReasonDecrementFailed списание остатков не удалось после успешной проверки.
	ReasonDecrementFailed Reason = "decrement_failed"
	// ReasonEmptyCart попытка оформить пустую корзину.
	ReasonEmptyCart Reason = "empty_cart"
	// ReasonInvalidCustomer данные покупателя не прошли валидацию.
	ReasonInvalidCustomer Reason = "invalid_customer"
)

func (r Reason) String() string { return string(r) }

// Result исход мутирующей операции корзины.
type Result struct {
	Success   bool   `json:"success"`
	Reason    Reason `json:"reason,omitempty"`
	Available *int   `json:"available,omitempty"`
}

// Succeeded возвращает успешный результат.
func Succeeded() Result {
	return Result{Success: true}
}

// Failed возвращает отказ с кодом причины.
func Failed(reason Reason) Result {
	return Result{Reason: reason}
}

// FailedWithAvailable возвращает отказ с доступным остатком.
func FailedWithAvailable(reason Reason, available int) Result {
	return Result{Reason: reason, Available: IntPtr(available)}
}

// ItemOutcome исход проверки или списания одной позиции батча.
type ItemOutcome struct {
	ProductID string `json:"productId"`
	OK        bool   `json:"ok"`
	Reason    Reason `json:"reason,omitempty"`
	Available *int   `json:"available,omitempty"`
}

// DecrementResult итог списания батча. Success истинно только если прошли все позиции.
type DecrementResult struct {
	Success bool          `json:"success"`
	Items   []ItemOutcome `json:"perItem"`
}

// PassedItems возвращает позиции батча, которые были списаны.
func (r DecrementResult) PassedItems(batch []LineItem) []LineItem {
	passed := make([]LineItem, 0, len(batch))
	for i, outcome := range r.Items {
		if outcome.OK && i < len(batch) {
			passed = append(passed, batch[i])
		}
	}
	return passed
}

// StockValidation результат проверки позиций против текущих остатков.
type StockValidation struct {
	OK    bool          `json:"ok"`
	Items []ItemOutcome `json:"perItem"`
}

// CheckoutResult исход оформления заказа.
type CheckoutResult struct {
	Success     bool          `json:"success"`
	Reason      Reason        `json:"reason,omitempty"`
	Items       []ItemOutcome `json:"perItem,omitempty"`
	FieldErrors []string      `json:"fieldErrors,omitempty"`
	OrderID     string        `json:"orderId,omitempty"`
}

// IntPtr возвращает указатель на копию значения.
func IntPtr(v int) *int {
	return &v
}
