package warehouse

import (
	"context"
	"database/sql"
	"fmt"
)

type index struct {
	name, table, column string
}

// Secondary indexes on every foreign key and date column. They are dropped
// before the bulk insert and rebuilt afterwards.
var indexes = []index{
	{"idx_job_country", "f_job_offers", "id_country"},
	{"idx_job_skill", "f_job_offers", "id_skill"},
	{"idx_job_source", "f_job_offers", "id_source"},
	{"idx_job_company", "f_job_offers", "id_company"},
	{"idx_job_date", "f_job_offers", "date_key"},
	{"idx_github_skill", "f_github_trends", "id_skill"},
	{"idx_github_date", "f_github_trends", "date_key"},
	{"idx_trends_skill", "f_search_trends", "id_skill"},
	{"idx_trends_date", "f_search_trends", "date_key"},
	{"idx_survey_country", "f_survey_responses", "id_country"},
	{"idx_survey_language_skill", "f_survey_languages", "id_skill"},
}

func dropIndexes(ctx context.Context, tx *sql.Tx) error {
	for _, idx := range indexes {
		if _, err := tx.ExecContext(ctx, "DROP INDEX IF EXISTS "+idx.name); err != nil {
			return fmt.Errorf("drop index %s: %w", idx.name, err)
		}
	}
	return nil
}

func createIndexes(ctx context.Context, tx *sql.Tx) error {
	for _, idx := range indexes {
		q := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.name, idx.table, idx.column)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
