package domain

// LineItem пара (productId, qty), из которой состоят корзина и батчи склада.
type LineItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// CloneLines возвращает независимую копию позиций.
func CloneLines(src []LineItem) []LineItem {
	dst := make([]LineItem, len(src))
	copy(dst, src)
	return dst
}

// TotalQty суммирует количество по всем позициям.
func TotalQty(lines []LineItem) int {
	total := 0
	for _, l := range lines {
		total += l.Qty
	}
	return total
}
