package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	migrationsDir     = "sql/migrations"
	migrationLockKey  = int64(48151623)
	migrationTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

var (
	//go:embed sql/migrations/*.sql
	embeddedMigrations embed.FS

	migrationFileRe = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)
)

type direction string

const (
	up   direction = "up"
	down direction = "down"
)

type migration struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

func (m migration) body(dir direction) string {
	if dir == down {
		return m.Down
	}
	return m.Up
}

func (m migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// MigrateUp применяет up-миграции; steps=0 — все ещё не применённые.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.migrate(ctx, up, steps)
}

// MigrateDown откатывает steps последних миграций; steps<=0 означает один шаг.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.migrate(ctx, down, steps)
}

// MigrationStatus возвращает текущую версию схемы и число применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errNotInitialized
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, migrationTableDDL); err != nil {
		return 0, 0, fmt.Errorf("ensure migration table: %w", err)
	}

	var (
		version int64
		count   int
	)
	err := s.db.QueryRowContext(queryCtx,
		`SELECT COALESCE(MAX(version), 0), COUNT(*) FROM schema_migrations`,
	).Scan(&version, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}
	return version, count, nil
}

func (s *Store) migrate(ctx context.Context, dir direction, steps int) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	if dir != up && dir != down {
		return fmt.Errorf("unsupported migration direction: %s", dir)
	}

	all, err := parseMigrations(embeddedMigrations)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	if _, err := conn.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	for _, m := range plan(all, applied, dir, steps) {
		if err := runStep(ctx, conn, m, dir); err != nil {
			return err
		}
	}
	return nil
}

// plan выбирает миграции для выполнения: для up — не применённые по возрастанию,
// для down — применённые по убыванию.
func plan(all []migration, applied map[int64]bool, dir direction, steps int) []migration {
	var selected []migration
	if dir == up {
		for _, m := range all {
			if !applied[m.Version] {
				selected = append(selected, m)
			}
		}
	} else {
		for i := len(all) - 1; i >= 0; i-- {
			if applied[all[i].Version] {
				selected = append(selected, all[i])
			}
		}
	}
	if steps > 0 && len(selected) > steps {
		selected = selected[:steps]
	}
	return selected
}

func runStep(ctx context.Context, conn *sql.Conn, m migration, dir direction) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx (%s %s): %w", dir, m, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.body(dir)); err != nil {
		return fmt.Errorf("execute %s migration %s: %w", dir, m, err)
	}

	if dir == up {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, NOW())`,
			m.Version, m.Name)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
	}
	if err != nil {
		return fmt.Errorf("record %s migration %s: %w", dir, m, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s migration %s: %w", dir, m, err)
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// parseMigrations читает пары NNNN_name.up.sql / NNNN_name.down.sql из fsys.
func parseMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int64]*migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		parts := migrationFileRe.FindStringSubmatch(name)
		if parts == nil {
			return nil, fmt.Errorf("invalid migration file name: %s", name)
		}

		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", name, err)
		}

		raw, err := fs.ReadFile(fsys, path.Join(migrationsDir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", name, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", name)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		} else if m.Name != parts[2] {
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, m.Name, parts[2])
		}

		target := &m.Up
		if direction(parts[3]) == down {
			target = &m.Down
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", parts[3], version)
		}
		*target = body
	}

	if len(byVersion) == 0 {
		return nil, errors.New("no migration files found")
	}

	result := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", m)
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
