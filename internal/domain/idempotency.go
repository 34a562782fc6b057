package domain

import (
	"errors"
	"time"
)

var (
	// ErrIdempotencyKeyRequired ключ идемпотентности пустой.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired не передан хэш тела запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound ключ не найден.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists ключ уже использован с тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch ключ повторно использован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
)

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing означает, что оформление принято и ещё выполняется.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone означает, что ответ сохранён и будет отдан повторно.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed означает, что обработка завершилась ошибкой хранилища.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord хранит ответ на запрос оформления с Idempotency-Key,
// чтобы повторная отправка формы не списала остатки дважды.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Expired сообщает, истёк ли срок жизни записи к моменту now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.After(now)
}

// IsIdempotencyConflict проверяет, что ключ уже занят.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
