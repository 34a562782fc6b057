package domain

import "errors"

var (
	// ErrStorage сбой нижележащего хранилища (недоступно, ошибка I/O).
	ErrStorage = errors.New("storage failure")
	// ErrDatasetNotFound возвращается хранилищем, если датасет ещё не записан.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrDatasetCorrupt сохранённое значение датасета не разбирается как JSON ожидаемой формы.
	ErrDatasetCorrupt = errors.New("dataset is corrupt")
	// ErrUnknownDataset имя датасета не входит в поддерживаемый набор.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrProductNotFound товар с таким идентификатором отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в журнале заказов.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists заказ с таким ID уже записан в журнал.
	ErrOrderExists = errors.New("order already exists")
	// ErrInvalidProduct товар не прошёл проверку (пустой ID, отрицательные цена или остаток).
	ErrInvalidProduct = errors.New("invalid product")
	// ErrInvalidQuantity количество не является допустимым целым числом.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrItemsRequired заказ должен содержать хотя бы одну позицию.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// ErrItemQtyInvalid количество в позиции заказа <= 0.
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// ErrItemPriceInvalid цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrLineTotalMismatch lineTotal позиции не равен unitPrice * qty.
	ErrLineTotalMismatch = errors.New("line total does not match unit price * qty")
	// ErrTotalsMismatch итоги заказа не сходятся с позициями.
	ErrTotalsMismatch = errors.New("order totals do not match items")
	// ErrOrderIDRequired у заказа нет идентификатора.
	ErrOrderIDRequired = errors.New("order id is required")
)

// IsNotFound проверяет, относится ли ошибка к отсутствующим сущностям.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDatasetNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsStorageFailure сообщает, что операция прервана сбоем хранилища,
// а не бизнес-отказом.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrDatasetCorrupt)
}
