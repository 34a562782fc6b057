package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultIdempotencyTTL = 24 * time.Hour

// idempotencyRepositoryInMemory хранит ответы на оформление заказа по Idempotency-Key.
// Просроченная запись считается отсутствующей ещё до того, как её удалит cleanup-воркер.
type idempotencyRepositoryInMemory struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[string]domain.IdempotencyRecord
}

// NewIdempotencyRepository создаёт in-memory реализацию IdempotencyRepository.
func NewIdempotencyRepository() domain.IdempotencyRepository {
	return &idempotencyRepositoryInMemory{
		now:   func() time.Time { return time.Now().UTC() },
		items: make(map[string]domain.IdempotencyRecord),
	}
}

func (r *idempotencyRepositoryInMemory) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	requestHash = strings.TrimSpace(requestHash)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	now := r.now()
	if ttlAt.IsZero() {
		ttlAt = now.Add(defaultIdempotencyTTL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.live(key, now); ok {
		if existing.RequestHash != requestHash {
			return clone(existing), domain.ErrIdempotencyHashMismatch
		}
		return clone(existing), domain.ErrIdempotencyKeyAlreadyExists
	}

	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[key] = record
	return clone(record), nil
}

func (r *idempotencyRepositoryInMemory) Get(key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.live(key, r.now())
	if !ok {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	return clone(record), nil
}

func (r *idempotencyRepositoryInMemory) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

func (r *idempotencyRepositoryInMemory) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

// DeleteExpired удаляет не более limit записей с ttl <= before (limit <= 0 — без ограничения).
func (r *idempotencyRepositoryInMemory) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, record := range r.items {
		if limit > 0 && removed >= limit {
			break
		}
		if !record.Expired(before) {
			continue
		}
		delete(r.items, key)
		removed++
	}
	return removed, nil
}

func (r *idempotencyRepositoryInMemory) finish(key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record, ok := r.live(key, now)
	if !ok {
		return domain.ErrIdempotencyKeyNotFound
	}
	record.Status = status
	record.ResponseBody = append([]byte(nil), responseBody...)
	record.HTTPStatus = httpStatus
	record.UpdatedAt = now
	r.items[key] = record
	return nil
}

// live возвращает запись, только если её срок жизни ещё не истёк. Вызывать под r.mu.
func (r *idempotencyRepositoryInMemory) live(key string, now time.Time) (domain.IdempotencyRecord, bool) {
	record, ok := r.items[key]
	if !ok || record.Expired(now) {
		return domain.IdempotencyRecord{}, false
	}
	return record, true
}

func clone(src domain.IdempotencyRecord) domain.IdempotencyRecord {
	dst := src
	dst.ResponseBody = append([]byte(nil), src.ResponseBody...)
	return dst
}

var _ domain.IdempotencyRepository = (*idempotencyRepositoryInMemory)(nil)
