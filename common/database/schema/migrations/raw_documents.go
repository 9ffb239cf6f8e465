package migrations

import "talentinsight/common/database/schema"

// Raw landing store schemas. The raw store lives in its own database, so it
// keeps its own migration history.

var CreateRawDocumentsSQLite = schema.Migration{
	Version:     1,
	Description: "Create raw documents table",
	Up: `
		CREATE TABLE IF NOT EXISTS raw_documents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			payload TEXT NOT NULL,
			ingested_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_raw_source ON raw_documents(source, seq)
	`,
	Down: `DROP TABLE IF EXISTS raw_documents`,
}

var CreateRawDocumentsClickHouse = schema.Migration{
	Version:     1,
	Description: "Create raw documents table",
	Up: `
		CREATE TABLE IF NOT EXISTS raw_documents (
			id UUID,
			source LowCardinality(String),
			payload String,
			ingested_at DateTime64(6)
		) ENGINE = ReplacingMergeTree(ingested_at)
		PARTITION BY source
		ORDER BY id
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS raw_documents`,
}

func Warehouse() []schema.Migration {
	return []schema.Migration{
		CreateDimensionTables,
		CreateFactTables,
		CreateLoadRunsTable,
	}
}

func Raw(dialect schema.Dialect) []schema.Migration {
	if dialect == schema.ClickHouse {
		return []schema.Migration{CreateRawDocumentsClickHouse}
	}
	return []schema.Migration{CreateRawDocumentsSQLite}
}
