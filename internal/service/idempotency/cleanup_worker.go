// Package idempotency защищает оформление заказа от повторной отправки:
// ответы запоминаются по Idempotency-Key, просроченные ключи удаляются фоном.
package idempotency

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
)

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

// WithLogger задаёт logger воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithInterval задаёт интервал между циклами очистки.
func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithBatchSize задаёт размер порции удаления.
func WithBatchSize(batchSize int) CleanupOption {
	return func(w *CleanupWorker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMetrics включает метрики очистки.
func WithMetrics(m *metrics.IdempotencyMetrics) CleanupOption {
	return func(w *CleanupWorker) {
		w.metrics = m
	}
}

// CleanupWorker периодически удаляет просроченные ключи оформления.
type CleanupWorker struct {
	repo      domain.IdempotencyRepository
	logger    *log.Entry
	metrics   *metrics.IdempotencyMetrics
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewCleanupWorker создаёт воркер очистки.
func NewCleanupWorker(repo domain.IdempotencyRepository, options ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:      repo,
		logger:    log.WithField("component", "idempotency-cleanup"),
		interval:  defaultCleanupInterval,
		batchSize: defaultCleanupBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run чистит ключи сразу и затем раз в interval, пока ctx не отменён.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup disabled: repository is nil")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CleanupWorker) runOnce(ctx context.Context) {
	deleted, err := w.DeleteExpired(ctx, w.now())
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		w.metrics.RecordCleanupRun("error", deleted)
		w.logger.WithError(err).Warn("idempotency cleanup run failed")
		return
	}

	w.metrics.RecordCleanupRun("ok", deleted)
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Info("expired idempotency keys removed")
	}
}

// DeleteExpired удаляет записи с ttl <= before порциями, пока порция заполнена целиком.
func (w *CleanupWorker) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = w.now()
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := w.repo.DeleteExpired(before, w.batchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		w.metrics.RecordDeleted(deleted)
		if deleted < w.batchSize {
			return total, nil
		}
	}
}
