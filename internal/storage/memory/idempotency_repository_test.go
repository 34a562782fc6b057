package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestIdempotencyRepository_CheckoutReplay(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	created, err := repo.CreateProcessing("checkout-1", "hash-a", ttl)
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusProcessing, created.Status)

	// Повторная отправка той же формы.
	_, err = repo.CreateProcessing("checkout-1", "hash-a", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)

	// Тот же ключ с другим телом запроса.
	_, err = repo.CreateProcessing("checkout-1", "hash-b", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	require.NoError(t, repo.MarkDone("checkout-1", []byte(`{"orderId":"ORD-1"}`), 201))

	got, err := repo.Get("checkout-1")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusDone, got.Status)
	require.Equal(t, 201, got.HTTPStatus)
	require.JSONEq(t, `{"orderId":"ORD-1"}`, string(got.ResponseBody))
}

func TestIdempotencyRepository_ExpiredKeyIsReusable(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing("checkout-2", "hash-a", time.Now().UTC().Add(-time.Second))
	require.NoError(t, err)

	_, err = repo.Get("checkout-2")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)

	_, err = repo.CreateProcessing("checkout-2", "hash-b", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	past := time.Now().UTC().Add(-time.Minute)

	for _, key := range []string{"a", "b", "c"} {
		_, err := repo.CreateProcessing(key, "hash", past)
		require.NoError(t, err)
	}
	_, err := repo.CreateProcessing("live", "hash", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	removed, err := repo.DeleteExpired(time.Now().UTC(), 2)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	removed, err = repo.DeleteExpired(time.Now().UTC(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get("live")
	require.NoError(t, err)
}

func TestIdempotencyRepository_Validation(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing(" ", "hash", time.Time{})
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)

	_, err = repo.CreateProcessing("key", "", time.Time{})
	require.ErrorIs(t, err, domain.ErrIdempotencyRequestHashRequired)

	require.ErrorIs(t, repo.MarkFailed("missing", nil, 500), domain.ErrIdempotencyKeyNotFound)
}
