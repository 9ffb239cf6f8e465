package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

type Dialect string

const (
	SQLite     Dialect = "sqlite"
	ClickHouse Dialect = "clickhouse"
)

type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Executor is the part of a database handle the migrator needs. Both the
// warehouse (database/sql) and the ClickHouse raw store satisfy it through
// the adapters below.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

type sqlExecutor struct {
	db interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}
}

// FromSQL adapts a *sql.DB or *sql.Tx.
func FromSQL(db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}) Executor {
	return &sqlExecutor{db: db}
}

func (e *sqlExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

func (e *sqlExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return e.db.QueryContext(ctx, query, args...)
}

type clickhouseExecutor struct {
	conn clickhouse.Conn
}

func FromClickHouse(conn clickhouse.Conn) Executor {
	return &clickhouseExecutor{conn: conn}
}

func (e *clickhouseExecutor) Exec(ctx context.Context, query string, args ...any) error {
	return e.conn.Exec(ctx, query, args...)
}

func (e *clickhouseExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return e.conn.Query(ctx, query, args...)
}

type Migrator struct {
	exec    Executor
	dialect Dialect
	logger  *zap.Logger
}

func NewMigrator(exec Executor, dialect Dialect, logger *zap.Logger) *Migrator {
	return &Migrator{
		exec:    exec,
		dialect: dialect,
		logger:  logger,
	}
}

func (m *Migrator) CreateMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if m.dialect == ClickHouse {
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version Int32,
				description String,
				applied_at DateTime,
				PRIMARY KEY (version)
			) ENGINE = MergeTree()
		`
	}

	if err := m.exec.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := "SELECT version, applied_at FROM schema_migrations ORDER BY version"

	rows, err := m.exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int32
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[int(version)] = appliedAt
	}

	return applied, rows.Err()
}

func (m *Migrator) ApplyMigration(ctx context.Context, migration Migration) error {
	for _, stmt := range statements(migration.Up) {
		if err := m.exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	if err := m.exec.Exec(ctx, `
		INSERT INTO schema_migrations (version, description, applied_at)
		VALUES (?, ?, ?)
	`, int32(migration.Version), migration.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	return nil
}

func (m *Migrator) RollbackMigration(ctx context.Context, migration Migration) error {
	for _, stmt := range statements(migration.Down) {
		if err := m.exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
		}
	}

	query := "DELETE FROM schema_migrations WHERE version = ?"
	if m.dialect == ClickHouse {
		query = "ALTER TABLE schema_migrations DELETE WHERE version = ?"
	}
	if err := m.exec.Exec(ctx, query, int32(migration.Version)); err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
	}

	return nil
}

// Migrate applies every pending migration in version order and returns how
// many ran. Already-applied versions are skipped, so it is safe on every run.
func (m *Migrator) Migrate(ctx context.Context, migrations []Migration) (int, error) {
	if err := m.CreateMigrationsTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	pending := make([]Migration, 0, len(migrations))
	for _, mig := range migrations {
		if _, ok := applied[mig.Version]; ok {
			m.logger.Debug("migration already applied",
				zap.Int("version", mig.Version),
				zap.String("description", mig.Description))
			continue
		}
		pending = append(pending, mig)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, mig := range pending {
		m.logger.Info("applying migration",
			zap.Int("version", mig.Version),
			zap.String("description", mig.Description))

		if err := m.ApplyMigration(ctx, mig); err != nil {
			return 0, err
		}
	}

	return len(pending), nil
}

func statements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
