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
	"time"
)

const (
	migrationsGlob    = "sql/migrations/*.sql"
	migrationLockKey  = int64(0x64656c6976) // "deliv"
	migrationTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

var (
	//go:embed sql/migrations/*.sql
	migrationsFS embed.FS

	migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

func (m migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// MigrationStatus описывает состояние схемы.
type MigrationStatus struct {
	Version int64
	Applied int
	Pending []string
}

// Migrator применяет встроенные SQL-миграции. Параллельные запуски
// сериализуются через pg_advisory_lock.
type Migrator struct {
	db      *sql.DB
	source  fs.FS
	lockKey int64
}

// NewMigrator создаёт Migrator для встроенных миграций.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db, source: migrationsFS, lockKey: migrationLockKey}
}

// MigrateUp применяет up-миграции; steps=0 применяет все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}
	_, err := NewMigrator(s.db).Up(ctx, steps)
	return err
}

// MigrateDown откатывает миграции; steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}
	_, err := NewMigrator(s.db).Down(ctx, steps)
	return err
}

// MigrationStatus возвращает текущую версию схемы и список неприменённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (MigrationStatus, error) {
	if s == nil || s.db == nil {
		return MigrationStatus{}, fmt.Errorf("postgres store is not initialized")
	}
	return NewMigrator(s.db).Status(ctx)
}

// Up применяет неприменённые миграции по возрастанию версии и возвращает их число.
func (m *Migrator) Up(ctx context.Context, steps int) (int, error) {
	migrations, err := loadMigrations(m.source)
	if err != nil {
		return 0, err
	}

	applied := 0
	err = m.locked(ctx, func(conn *sql.Conn) error {
		versions, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, mig := range planUp(migrations, versions, steps) {
			if err := execInTx(ctx, conn, mig.UpSQL,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, NOW())`,
				mig.Version, mig.Name,
			); err != nil {
				return fmt.Errorf("apply up migration %s: %w", mig, err)
			}
			applied++
		}
		return nil
	})
	return applied, err
}

// Down откатывает последние steps миграций (минимум одну).
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}

	migrations, err := loadMigrations(m.source)
	if err != nil {
		return 0, err
	}

	reverted := 0
	err = m.locked(ctx, func(conn *sql.Conn) error {
		versions, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		plan, err := planDown(migrations, versions, steps)
		if err != nil {
			return err
		}
		for _, mig := range plan {
			if err := execInTx(ctx, conn, mig.DownSQL,
				`DELETE FROM schema_migrations WHERE version = $1`,
				mig.Version,
			); err != nil {
				return fmt.Errorf("apply down migration %s: %w", mig, err)
			}
			reverted++
		}
		return nil
	})
	return reverted, err
}

// Status возвращает версию схемы и неприменённые миграции.
func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	migrations, err := loadMigrations(m.source)
	if err != nil {
		return MigrationStatus{}, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	conn, err := m.db.Conn(queryCtx)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(queryCtx, migrationTableDDL); err != nil {
		return MigrationStatus{}, fmt.Errorf("ensure migration table: %w", err)
	}
	versions, err := appliedVersions(queryCtx, conn)
	if err != nil {
		return MigrationStatus{}, err
	}

	status := MigrationStatus{Applied: len(versions)}
	for _, v := range versions {
		if v > status.Version {
			status.Version = v
		}
	}
	for _, mig := range planUp(migrations, versions, 0) {
		status.Pending = append(status.Pending, mig.String())
	}
	return status, nil
}

func (m *Migrator) locked(ctx context.Context, fn func(conn *sql.Conn) error) error {
	if m.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", m.lockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = conn.ExecContext(unlockCtx, "SELECT pg_advisory_unlock($1)", m.lockKey)
	}()

	if _, err := conn.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	return fn(conn)
}

// execInTx выполняет тело миграции и запись в schema_migrations атомарно.
func execInTx(ctx context.Context, conn *sql.Conn, body, bookkeeping string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update schema_migrations: %w", err)
	}
	return tx.Commit()
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]bool)
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration version: %w", err)
		}
		result[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return result, nil
}

// planUp выбирает неприменённые миграции по возрастанию версии.
func planUp(migrations []migration, applied map[int64]bool, steps int) []migration {
	plan := make([]migration, 0, len(migrations))
	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		plan = append(plan, mig)
		if steps > 0 && len(plan) >= steps {
			break
		}
	}
	return plan
}

// planDown выбирает последние применённые миграции по убыванию версии.
func planDown(migrations []migration, applied map[int64]bool, steps int) ([]migration, error) {
	known := make(map[int64]migration, len(migrations))
	for _, mig := range migrations {
		known[mig.Version] = mig
	}

	versions := make([]int64, 0, len(applied))
	for version := range applied {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	plan := make([]migration, 0, steps)
	for _, version := range versions {
		if len(plan) >= steps {
			break
		}
		mig, ok := known[version]
		if !ok {
			return nil, fmt.Errorf("cannot rollback unknown migration version %d", version)
		}
		plan = append(plan, mig)
	}
	return plan, nil
}

func parseMigrationFileName(base string) (version int64, name, direction string, err error) {
	matches := migrationFilePattern.FindStringSubmatch(base)
	if len(matches) != 4 {
		return 0, "", "", fmt.Errorf("invalid migration file name: %s", base)
	}
	version, err = strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("parse migration version from %s: %w", base, err)
	}
	return version, matches[2], matches[3], nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, migrationsGlob)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*migration)
	for _, file := range files {
		base := path.Base(file)
		version, name, direction, err := parseMigrationFileName(base)
		if err != nil {
			return nil, err
		}

		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", file, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", base)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &migration{Version: version, Name: name}
			byVersion[version] = mig
		} else if mig.Name != name {
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, mig.Name, name)
		}

		target := &mig.UpSQL
		if direction == "down" {
			target = &mig.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", direction, version)
		}
		*target = body
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.UpSQL == "" || mig.DownSQL == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", mig)
		}
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })

	return migrations, nil
}
