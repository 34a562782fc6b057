package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/sqlite"
)

func TestStore_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)

	_, err = store.Read(ctx, domain.DatasetProducts)
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)

	require.NoError(t, store.Write(ctx, domain.DatasetProducts, []byte(`[{"id":"P1","price":1,"stock":2}]`)))
	require.NoError(t, store.Write(ctx, domain.DatasetProducts, []byte(`[{"id":"P1","price":1,"stock":1}]`)))
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Read(ctx, domain.DatasetProducts)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"P1","price":1,"stock":1}]`, string(got))
}

func TestStore_RejectsInvalidPayload(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.Error(t, store.Write(context.Background(), domain.DatasetCart, []byte(`{oops`)))
	require.ErrorIs(t, store.Write(context.Background(), domain.Dataset("users"), []byte(`[]`)), domain.ErrUnknownDataset)
}
