package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "STOREFRONT_POSTGRES_DSN"
)

// migrator операции схемы, которые нужны утилите.
type migrator interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (int64, int, error)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var (
		direction string
		steps     int
		dsn       string
	)

	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv(envPostgresDSN))
	}
	if dsn == "" {
		log.Fatalf("%s (or -dsn) is required", envPostgresDSN)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("open postgres store")
	}
	defer store.Close()

	if err := migrate(ctx, store, direction, steps, os.Stdout); err != nil {
		log.WithError(err).Error("migration failed")
		_ = store.Close()
		os.Exit(1)
	}
}

// migrate выполняет одно направление и печатает итоговую версию схемы.
func migrate(ctx context.Context, m migrator, direction string, steps int, w io.Writer) error {
	var label string

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		if err := m.MigrateUp(ctx, steps); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		label = "migrate up ok"
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := m.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		label = "migrate down ok"
	case "status":
		label = "migration status"
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status)", direction)
	}

	version, count, err := m.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s: version=%d applied=%d\n", label, version, count)
	return err
}
