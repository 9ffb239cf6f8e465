package rawstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"talentinsight/common/database/schema"
	"talentinsight/common/database/schema/migrations"

	"go.uber.org/zap"
)

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(ctx context.Context, db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	migrator := schema.NewMigrator(schema.FromSQL(db), schema.SQLite, logger)
	if _, err := migrator.Migrate(ctx, migrations.Raw(schema.SQLite)); err != nil {
		return nil, fmt.Errorf("migrate raw store: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec RawRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO raw_documents (id, source, payload, ingested_at)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.Source, string(rec.Payload), rec.IngestedAt)
	if err != nil {
		return false, fmt.Errorf("insert raw document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Scan(ctx context.Context, source string, fn func(RawRecord) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, payload, ingested_at
		FROM raw_documents
		WHERE source = ?
		ORDER BY seq
	`, source)
	if err != nil {
		return fmt.Errorf("query raw documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec     RawRecord
			payload string
			at      time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &payload, &at); err != nil {
			return fmt.Errorf("scan raw document: %w", err)
		}
		rec.Payload = []byte(payload)
		rec.IngestedAt = at
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM raw_documents GROUP BY source ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("count raw documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan raw count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
