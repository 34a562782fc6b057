package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceQuantity приводит произвольный ввод к числу так же, как это делает
// веб-клиент витрины: строки обрезаются, пустая строка и nil дают 0,
// нечисловой ввод даёт NaN.
func CoerceQuantity(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		return parseQuantityString(string(x))
	case string:
		return parseQuantityString(x)
	default:
		return math.NaN()
	}
}

func parseQuantityString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// MaxQuantity верхняя граница количества в одной операции корзины или склада.
const MaxQuantity = math.MaxInt32

// MaxStock наибольший остаток товара, который без потерь хранится в JSON-датасете.
const MaxStock = 1<<53 - 1

// ToQuantity переводит число в количество. false, если v не целое,
// отрицательное или больше MaxQuantity.
func ToQuantity(v float64) (int, bool) {
	if !isInteger(v) || v < 0 || v > MaxQuantity {
		return 0, false
	}
	return int(v), true
}

// IsPositiveInteger целое число больше нуля и не больше MaxQuantity (1, "2", 3.0).
func IsPositiveInteger(v float64) bool {
	n, ok := ToQuantity(v)
	return ok && n > 0
}

// IsNonNegativeInteger как IsPositiveInteger, но допускает 0 (сигнал удаления позиции).
func IsNonNegativeInteger(v float64) bool {
	_, ok := ToQuantity(v)
	return ok
}

func isInteger(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v == math.Trunc(v)
}
