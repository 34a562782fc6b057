package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// DefaultTTL срок хранения ответа по ключу.
const DefaultTTL = 24 * time.Hour

var (
	// ErrInProgress запрос с тем же ключом ещё выполняется.
	ErrInProgress = errors.New("request with the same idempotency key is already processing")
	// ErrCorruptRecord сохранённая запись не содержит ответа.
	ErrCorruptRecord = errors.New("idempotency record has no stored response")
)

// Replay сохранённый ответ, который нужно вернуть вместо повторной обработки.
type Replay struct {
	Status int
	Body   []byte
}

// Guard связывает Idempotency-Key с ответом на первый запрос.
type Guard struct {
	repo    domain.IdempotencyRepository
	ttl     time.Duration
	now     func() time.Time
	logger  *log.Entry
	metrics *metrics.IdempotencyMetrics
}

// NewGuard создаёт Guard; ttl <= 0 заменяется на DefaultTTL.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry, m *metrics.IdempotencyMetrics) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency")
	}
	return &Guard{
		repo:    repo,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
		metrics: m,
	}
}

// RequestHash sha256 от тела запроса без пробелов по краям.
func RequestHash(body []byte) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(string(body))))
	return hex.EncodeToString(sum[:])
}

// Begin регистрирует ключ. nil Replay и nil ошибка — запрос новый и его нужно обработать,
// затем вызвать Complete. Ненулевой Replay — ответ на прошлый запрос с тем же ключом.
func (g *Guard) Begin(key, requestHash string) (*Replay, error) {
	record, err := g.repo.CreateProcessing(key, requestHash, g.now().Add(g.ttl))
	switch {
	case err == nil:
		g.metrics.RecordRequest("new")
		return nil, nil
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		g.metrics.RecordRequest("mismatch")
		return nil, err
	case !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		return nil, fmt.Errorf("create idempotency record: %w", err)
	}

	switch record.Status {
	case domain.IdempotencyStatusProcessing:
		g.metrics.RecordRequest("in_progress")
		return nil, ErrInProgress
	case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
		if record.HTTPStatus == 0 || len(record.ResponseBody) == 0 {
			return nil, ErrCorruptRecord
		}
		g.metrics.RecordRequest("replay")
		return &Replay{Status: record.HTTPStatus, Body: append([]byte(nil), record.ResponseBody...)}, nil
	default:
		return nil, fmt.Errorf("unknown idempotency status %q", record.Status)
	}
}

// Complete сохраняет ответ. Ответы 5xx сохраняются как failed.
func (g *Guard) Complete(key string, status int, body []byte) {
	var err error
	if status >= http.StatusInternalServerError {
		err = g.repo.MarkFailed(key, body, status)
	} else {
		err = g.repo.MarkDone(key, body, status)
	}
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}
