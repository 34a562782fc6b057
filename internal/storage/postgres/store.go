package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
)

var errNotInitialized = errors.New("postgres store is not initialized")

// Store хранит датасеты витрины в таблице datasets (одна строка на датасет, payload — JSONB).
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB для репозиториев и миграций.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Read возвращает payload датасета как JSON-текст.
func (s *Store) Read(ctx context.Context, dataset domain.Dataset) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var payload string
	err := s.db.QueryRowContext(queryCtx,
		`SELECT payload::text FROM datasets WHERE name = $1`, string(dataset),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select dataset %s: %w", dataset, err)
	}
	return []byte(payload), nil
}

// Write сохраняет payload целиком (upsert) и увеличивает версию строки.
func (s *Store) Write(ctx context.Context, dataset domain.Dataset, data []byte) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if !dataset.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx, `
		INSERT INTO datasets (name, payload, version, updated_at)
		VALUES ($1, $2::jsonb, 1, NOW())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload,
		    version = datasets.version + 1,
		    updated_at = NOW()
	`, string(dataset), string(data))
	if err != nil {
		return fmt.Errorf("upsert dataset %s: %w", dataset, err)
	}
	return nil
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.Store = (*Store)(nil)
var _ domain.Pinger = (*Store)(nil)
