package app

import (
	"context"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestInitStorage_Memory(t *testing.T) {
	t.Parallel()

	st, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverMemory}, log.WithField("test", "memory"))
	require.NoError(t, err)
	require.NotNil(t, st.store)
	require.NotNil(t, st.idempotencyRepo)
}

func TestInitStorage_EmbeddedDrivers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configs := map[string]Config{
		StorageDriverPebble: {StorageDriver: StorageDriverPebble, PebbleDir: filepath.Join(dir, "pebble")},
		StorageDriverSQLite: {StorageDriver: StorageDriverSQLite, SQLitePath: filepath.Join(dir, "nested", "store.db")},
	}

	for name, cfg := range configs {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st, err := initStorage(ctx, cfg, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.store.Close() })

			require.NoError(t, st.store.Write(ctx, domain.DatasetCart, []byte(`{"items":[]}`)))
			raw, err := st.store.Read(ctx, domain.DatasetCart)
			require.NoError(t, err)
			require.JSONEq(t, `{"items":[]}`, string(raw))
		})
	}
}

func TestInitStorage_RequiresConnectionSettings(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverPostgres}, nil)
	require.Error(t, err)

	_, err = initStorage(context.Background(), Config{StorageDriver: StorageDriverMongo}, nil)
	require.Error(t, err)
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{StorageDriver: "cassandra"}, nil)
	require.Error(t, err)
}
