package domain

// Dataset логическое имя набора данных в хранилище.
type Dataset string

const (
	// DatasetProducts каталог товаров вместе с остатками.
	DatasetProducts Dataset = "products"
	// DatasetCart содержимое корзины текущей сессии.
	DatasetCart Dataset = "cart"
	// DatasetOrders журнал оформленных заказов (только добавление).
	DatasetOrders Dataset = "orders"
)

// Datasets возвращает все поддерживаемые датасеты.
func Datasets() []Dataset {
	return []Dataset{DatasetProducts, DatasetCart, DatasetOrders}
}

// Valid проверяет, что датасет относится к поддерживаемым значениям.
func (d Dataset) Valid() bool {
	switch d {
	case DatasetProducts, DatasetCart, DatasetOrders:
		return true
	default:
		return false
	}
}

func (d Dataset) String() string { return string(d) }
