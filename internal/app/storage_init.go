package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/mongo"
	"github.com/vladislavdragonenkov/storefront/internal/storage/pebble"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/storage/sqlite"
)

// storage открытое хранилище датасетов и репозиторий ключей идемпотентности.
type storage struct {
	store           domain.Store
	idempotencyRepo domain.IdempotencyRepository
}

// OpenStore открывает хранилище датасетов выбранного драйвера.
func OpenStore(ctx context.Context, cfg Config, logger *log.Entry) (domain.Store, error) {
	s, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return s.store, nil
}

// initStorage открывает хранилище. Ключи идемпотентности живут в PostgreSQL
// только для драйвера postgres, для остальных драйверов — в памяти процесса.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storage, error) {
	if logger == nil {
		logger = log.WithField("component", "storage")
	}
	fields := log.Fields{"driver": cfg.StorageDriver}

	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.WithFields(fields).Info("using in-memory storage")
		return &storage{store: memory.NewStore(), idempotencyRepo: memory.NewIdempotencyRepository()}, nil

	case StorageDriverPebble:
		store, err := pebble.Open(cfg.PebbleDir)
		if err != nil {
			return nil, err
		}
		logger.WithFields(fields).WithField("dir", cfg.PebbleDir).Info("pebble storage opened")
		return &storage{store: store, idempotencyRepo: memory.NewIdempotencyRepository()}, nil

	case StorageDriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.WithFields(fields).WithField("path", cfg.SQLitePath).Info("sqlite storage opened")
		return &storage{store: store, idempotencyRepo: memory.NewIdempotencyRepository()}, nil

	case StorageDriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongo uri is required for %s storage", StorageDriverMongo)
		}
		store, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.WithFields(fields).WithField("database", cfg.MongoDatabase).Info("mongo storage opened")
		return &storage{store: store, idempotencyRepo: memory.NewIdempotencyRepository()}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn is required for %s storage", StorageDriverPostgres)
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.WithFields(fields).WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("postgres storage opened")
		return &storage{store: store, idempotencyRepo: postgres.NewIdempotencyRepository(store)}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
