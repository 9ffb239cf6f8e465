package migrations

import "talentinsight/common/database/schema"

var CreateLoadRunsTable = schema.Migration{
	Version:     3,
	Description: "Create load runs audit table",
	Up: `
		CREATE TABLE IF NOT EXISTS load_runs (
			run_id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			status TEXT NOT NULL,
			error TEXT,
			report TEXT
		)
	`,
	Down: `DROP TABLE IF EXISTS load_runs`,
}
