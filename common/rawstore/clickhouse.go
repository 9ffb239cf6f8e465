package rawstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"talentinsight/common/database/schema"
	"talentinsight/common/database/schema/migrations"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClickHouseStore lands raw documents in a ReplacingMergeTree keyed by ID.
// Inserts probe for the ID first; reads use FINAL so a duplicate that slipped
// past a concurrent writer is still collapsed to one row.
type ClickHouseStore struct {
	conn   clickhouse.Conn
	logger *zap.Logger
	mu     sync.Mutex
}

func NewClickHouseStore(ctx context.Context, conn clickhouse.Conn, logger *zap.Logger) (*ClickHouseStore, error) {
	migrator := schema.NewMigrator(schema.FromClickHouse(conn), schema.ClickHouse, logger)
	if _, err := migrator.Migrate(ctx, migrations.Raw(schema.ClickHouse)); err != nil {
		return nil, fmt.Errorf("migrate raw store: %w", err)
	}
	return &ClickHouseStore{conn: conn, logger: logger}, nil
}

func (s *ClickHouseStore) Insert(ctx context.Context, rec RawRecord) (bool, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return false, fmt.Errorf("invalid record id %q: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing uint64
	if err := s.conn.QueryRow(ctx,
		"SELECT count() FROM raw_documents WHERE id = ?", id,
	).Scan(&existing); err != nil {
		return false, fmt.Errorf("probe raw document: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	if err := s.conn.Exec(ctx, `
		INSERT INTO raw_documents (id, source, payload, ingested_at)
		VALUES (?, ?, ?, ?)
	`, id, rec.Source, string(rec.Payload), rec.IngestedAt); err != nil {
		return false, fmt.Errorf("insert raw document: %w", err)
	}
	return true, nil
}

func (s *ClickHouseStore) Scan(ctx context.Context, source string, fn func(RawRecord) error) error {
	rows, err := s.conn.Query(ctx, `
		SELECT toString(id), source, payload, ingested_at
		FROM raw_documents FINAL
		WHERE source = ?
		ORDER BY ingested_at, id
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

func (s *ClickHouseStore) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT source, count() FROM raw_documents FINAL GROUP BY source ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("count raw documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n uint64
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan raw count: %w", err)
		}
		counts[source] = int(n)
	}
	return counts, rows.Err()
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}
