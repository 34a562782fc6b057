package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	requireStatus := func(wantVersion int64, wantCount int) {
		t.Helper()
		version, count, err := store.MigrationStatus(ctx)
		require.NoError(t, err)
		require.Equal(t, wantVersion, version)
		require.Equal(t, wantCount, count)
	}

	require.NoError(t, store.MigrateDown(ctx, 100))
	requireStatus(0, 0)

	require.NoError(t, store.MigrateUp(ctx, 1))
	requireStatus(1, 1)

	require.NoError(t, store.MigrateUp(ctx, 0))
	requireStatus(2, 2)

	// Повторный up ничего не меняет.
	require.NoError(t, store.EnsureSchema(ctx))
	requireStatus(2, 2)

	require.NoError(t, store.MigrateDown(ctx, 0))
	requireStatus(1, 1)

	require.NoError(t, store.MigrateDown(ctx, 1))
	requireStatus(0, 0)

	// Откат на пустой схеме — no-op.
	require.NoError(t, store.MigrateDown(ctx, 1))

	require.NoError(t, store.MigrateUp(ctx, 0))
}

func TestMigrator_GuardsAndUnsupportedDirection(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.Error(t, nilStore.MigrateUp(ctx, 0))
	require.Error(t, nilStore.MigrateDown(ctx, 1))
	_, _, err := nilStore.MigrationStatus(ctx)
	require.Error(t, err)

	store := openRawPostgresStoreForIntegrationTest(t)
	require.Error(t, store.migrate(ctx, direction("sideways"), 0))
}
