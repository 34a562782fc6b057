// Package sqlite хранит датасеты витрины в файле SQLite (одна строка на датасет).
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// Store реализует domain.Store поверх SQLite.
type Store struct {
	db *sql.DB
}

// Open открывает или создаёт базу по пути path и применяет схему.
// Путь ":memory:" даёт базу в памяти процесса.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite допускает одного писателя; с одним соединением база ":memory:" тоже общая.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Read возвращает payload датасета.
func (s *Store) Read(ctx context.Context, dataset domain.Dataset) ([]byte, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM datasets WHERE name = ?`, string(dataset),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select dataset %s: %w", dataset, err)
	}
	return []byte(payload), nil
}

// Write заменяет payload датасета целиком.
func (s *Store) Write(ctx context.Context, dataset domain.Dataset, data []byte) error {
	if !dataset.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (name, payload) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE
		SET payload = excluded.payload,
		    version = datasets.version + 1,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, string(dataset), string(data))
	if err != nil {
		return fmt.Errorf("upsert dataset %s: %w", dataset, err)
	}
	return nil
}

// Ping проверяет соединение с базой.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ domain.Store = (*Store)(nil)
var _ domain.Pinger = (*Store)(nil)
