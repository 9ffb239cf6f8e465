package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"talentinsight/common/errors"
)

type reference struct {
	table, column, parent, parentColumn string
}

var references = []reference{
	{"f_job_offers", "id_country", "d_country", "id_country"},
	{"f_job_offers", "id_skill", "d_skill", "id_skill"},
	{"f_job_offers", "id_source", "d_source", "id_source"},
	{"f_job_offers", "id_company", "d_company", "id_company"},
	{"f_job_offers", "date_key", "d_date", "date_key"},
	{"f_github_trends", "id_skill", "d_skill", "id_skill"},
	{"f_github_trends", "id_source", "d_source", "id_source"},
	{"f_github_trends", "date_key", "d_date", "date_key"},
	{"f_search_trends", "id_skill", "d_skill", "id_skill"},
	{"f_search_trends", "id_source", "d_source", "id_source"},
	{"f_search_trends", "date_key", "d_date", "date_key"},
	{"f_survey_responses", "id_country", "d_country", "id_country"},
	{"f_survey_responses", "id_source", "d_source", "id_source"},
	{"f_survey_languages", "id_response", "f_survey_responses", "id_response"},
	{"f_survey_languages", "id_skill", "d_skill", "id_skill"},
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CheckIntegrity verifies that every fact foreign key resolves to an existing
// dimension row. It accepts the load transaction or the database.
func CheckIntegrity(ctx context.Context, q querier) error {
	var dangling []string
	for _, ref := range references {
		query := fmt.Sprintf(
			"SELECT COUNT(*) FROM %s f LEFT JOIN %s d ON f.%s = d.%s WHERE d.%s IS NULL",
			ref.table, ref.parent, ref.column, ref.parentColumn, ref.parentColumn)

		var n int
		if err := q.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return errors.Load("integrity check query failed", err)
		}
		if n > 0 {
			dangling = append(dangling, fmt.Sprintf("%s.%s (%d rows)", ref.table, ref.column, n))
		}
	}

	if len(dangling) > 0 {
		return errors.Load("dangling foreign keys: "+strings.Join(dangling, ", "), nil)
	}
	return nil
}
