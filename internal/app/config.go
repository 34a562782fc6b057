package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Драйверы хранилища датасетов.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPebble   = "pebble"
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMongo    = "mongo"
)

// Config описывает настройки запуска витрины.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	PebbleDir           string
	SQLitePath          string
	MongoURI            string
	MongoDatabase       string

	// CatalogFile стартовый каталог (YAML или JSON); пусто — встроенный.
	CatalogFile string
	TaxRate     float64
	CORSOrigins []string

	KafkaBrokers []string

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		PebbleDir:                   "data/pebble",
		SQLitePath:                  "data/storefront.db",
		MongoDatabase:               "storefront",
		TaxRate:                     0.10,
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}

// Validate проверяет согласованность настроек выбранного драйвера.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http addr is required"))
	}
	if c.TaxRate < 0 {
		errs = append(errs, fmt.Errorf("tax rate must be non-negative, got %v", c.TaxRate))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("idempotency ttl must be positive"))
	}
	if c.IdempotencyCleanupInterval <= 0 {
		errs = append(errs, errors.New("idempotency cleanup interval must be positive"))
	}
	if c.IdempotencyCleanupBatchSize <= 0 {
		errs = append(errs, errors.New("idempotency cleanup batch size must be positive"))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPebble:
		if c.PebbleDir == "" {
			errs = append(errs, errors.New("pebble dir is required for pebble storage"))
		}
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
		}
	case StorageDriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required for sqlite storage"))
		}
	case StorageDriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo uri is required for mongo storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	return errors.Join(errs...)
}
