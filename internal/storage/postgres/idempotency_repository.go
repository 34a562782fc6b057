package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultIdempotencyTTL = 24 * time.Hour

type idempotencyRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewIdempotencyRepository создаёт PostgreSQL-реализацию IdempotencyRepository
// для ключей оформления заказа.
func NewIdempotencyRepository(store *Store) domain.IdempotencyRepository {
	return &idempotencyRepository{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *idempotencyRepository) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
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

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Просроченный ключ перезаписывается, живой остаётся нетронутым.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, request_hash, status, ttl_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (key) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
		    response_body = NULL,
		    http_status = NULL,
		    status = EXCLUDED.status,
		    ttl_at = EXCLUDED.ttl_at,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE idempotency_keys.ttl_at <= $5
	`, key, requestHash, string(domain.IdempotencyStatusProcessing), ttlAt, now)
	if err != nil && !isUniqueViolation(err) {
		return domain.IdempotencyRecord{}, fmt.Errorf("create idempotency record: %w", err)
	}

	inserted := false
	if err == nil {
		affected, affErr := res.RowsAffected()
		if affErr != nil {
			return domain.IdempotencyRecord{}, fmt.Errorf("idempotency rows affected: %w", affErr)
		}
		inserted = affected > 0
	}

	if !inserted {
		existing, getErr := r.Get(key)
		if getErr != nil {
			return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyAlreadyExists
		}
		if existing.RequestHash != requestHash {
			return existing, domain.ErrIdempotencyHashMismatch
		}
		return existing, domain.ErrIdempotencyKeyAlreadyExists
	}

	return domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *idempotencyRepository) Get(key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		record     domain.IdempotencyRecord
		status     string
		body       []byte
		httpStatus sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT key, request_hash, response_body, http_status, status, ttl_at, created_at, updated_at
		FROM idempotency_keys
		WHERE key = $1 AND ttl_at > $2
	`, key, r.now()).Scan(
		&record.Key,
		&record.RequestHash,
		&body,
		&httpStatus,
		&status,
		&record.TTLAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("get idempotency record: %w", err)
	}

	record.Status = domain.IdempotencyStatus(status)
	if !record.Status.Valid() {
		return domain.IdempotencyRecord{}, fmt.Errorf("invalid idempotency status %q for key %s", status, key)
	}
	record.ResponseBody = append([]byte(nil), body...)
	if httpStatus.Valid {
		record.HTTPStatus = int(httpStatus.Int64)
	}
	return record, nil
}

func (r *idempotencyRepository) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

func (r *idempotencyRepository) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

// DeleteExpired удаляет записи с ttl <= before, не более limit за вызов (limit <= 0 — все).
func (r *idempotencyRepository) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = r.now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `DELETE FROM idempotency_keys WHERE ttl_at <= $1`
	args := []interface{}{before}
	if limit > 0 {
		query = `
			DELETE FROM idempotency_keys
			WHERE key IN (
				SELECT key FROM idempotency_keys
				WHERE ttl_at <= $1
				ORDER BY ttl_at
				LIMIT $2
			)`
		args = append(args, limit)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("idempotency rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *idempotencyRepository) finish(key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := r.now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE idempotency_keys
		SET response_body = $1, http_status = $2, status = $3, updated_at = $4
		WHERE key = $5 AND ttl_at > $4
	`, responseBody, httpStatus, string(status), now, key)
	if err != nil {
		return fmt.Errorf("mark idempotency key %s: %w", status, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("idempotency rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}
	return nil
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
