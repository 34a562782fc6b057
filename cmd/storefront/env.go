package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

const (
	envLogLevel                    = "STOREFRONT_LOG_LEVEL"
	envHTTPAddr                    = "STOREFRONT_HTTP_ADDR"
	envMetricsAddr                 = "STOREFRONT_METRICS_ADDR"
	envStorageDriver               = "STOREFRONT_STORAGE_DRIVER"
	envPostgresDSN                 = "STOREFRONT_POSTGRES_DSN"
	envPostgresAutoMigrate         = "STOREFRONT_POSTGRES_AUTO_MIGRATE"
	envPebbleDir                   = "STOREFRONT_PEBBLE_DIR"
	envSQLitePath                  = "STOREFRONT_SQLITE_PATH"
	envMongoURI                    = "STOREFRONT_MONGO_URI"
	envMongoDatabase               = "STOREFRONT_MONGO_DATABASE"
	envCatalogFile                 = "STOREFRONT_CATALOG_FILE"
	envTaxRate                     = "STOREFRONT_TAX_RATE"
	envCORSOrigins                 = "STOREFRONT_CORS_ORIGINS"
	envKafkaBrokers                = "KAFKA_BROKERS"
	envIdempotencyTTL              = "STOREFRONT_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "STOREFRONT_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "STOREFRONT_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
)

type envLookup func(string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию
// и возвращается предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("ignore %s=%q: %v", key, value, err))
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envPostgresDSN, &cfg.PostgresDSN)
	str(envPebbleDir, &cfg.PebbleDir)
	str(envSQLitePath, &cfg.SQLitePath)
	str(envMongoURI, &cfg.MongoURI)
	str(envMongoDatabase, &cfg.MongoDatabase)
	str(envCatalogFile, &cfg.CatalogFile)

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookup(envPostgresAutoMigrate); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	if v, ok := lookup(envTaxRate); ok {
		if parsed, err := parseFloat(v, func(f float64) bool { return f >= 0 }, "must be >= 0"); err != nil {
			warn(envTaxRate, v, err)
		} else {
			cfg.TaxRate = parsed
		}
	}

	if v, ok := lookup(envCORSOrigins); ok {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = splitList(v)
	}

	positive := func(d time.Duration) bool { return d > 0 }
	if v, ok := lookup(envIdempotencyTTL); ok {
		if parsed, err := parseDuration(v, positive, "must be > 0"); err != nil {
			warn(envIdempotencyTTL, v, err)
		} else {
			cfg.IdempotencyTTL = parsed
		}
	}
	if v, ok := lookup(envIdempotencyCleanupInterval); ok {
		if parsed, err := parseDuration(v, positive, "must be > 0"); err != nil {
			warn(envIdempotencyCleanupInterval, v, err)
		} else {
			cfg.IdempotencyCleanupInterval = parsed
		}
	}
	if v, ok := lookup(envIdempotencyCleanupBatchSize); ok {
		if parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envIdempotencyCleanupBatchSize, v, err)
		} else {
			cfg.IdempotencyCleanupBatchSize = parsed
		}
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, fmt.Errorf("%d %s", v, rule)
	}
	return v, nil
}

func parseFloat(raw string, valid func(float64) bool, rule string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, fmt.Errorf("%v %s", v, rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, fmt.Errorf("%s %s", v, rule)
	}
	return v, nil
}

// splitList разбирает список через запятую, пропуская пустые элементы.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
