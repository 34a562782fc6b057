package pebble_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/pebble"
)

func TestStore_WriteReadAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := pebble.Open(dir)
	require.NoError(t, err)

	_, err = store.Read(ctx, domain.DatasetCart)
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)

	require.NoError(t, store.Write(ctx, domain.DatasetCart, []byte(`{"items":[]}`)))
	require.NoError(t, store.Write(ctx, domain.DatasetCart, []byte(`{"items":[{"productId":"P1","qty":1}]}`)))
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	reopened, err := pebble.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Read(ctx, domain.DatasetCart)
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[{"productId":"P1","qty":1}]}`, string(got))
}

func TestStore_RejectsUnknownDataset(t *testing.T) {
	store, err := pebble.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	err = store.Write(context.Background(), domain.Dataset("users"), []byte(`[]`))
	require.ErrorIs(t, err, domain.ErrUnknownDataset)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := pebble.Open("")
	require.Error(t, err)
}
