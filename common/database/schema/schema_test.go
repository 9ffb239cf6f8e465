package schema_test

import (
	"context"
	"testing"

	"talentinsight/common/database"
	"talentinsight/common/database/schema"
	"talentinsight/common/database/schema/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	db, err := database.NewSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	defer db.Close()

	m := schema.NewMigrator(schema.FromSQL(db), schema.SQLite, logger)

	n, err := m.Migrate(ctx, migrations.Warehouse())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.Migrate(ctx, migrations.Warehouse())
	require.NoError(t, err)
	assert.Zero(t, n)

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 3)

	for _, table := range []string{"d_country", "d_skill", "d_source", "d_company", "d_date",
		"f_job_offers", "f_github_trends", "f_search_trends", "f_survey_responses", "f_survey_languages", "load_runs"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestRollbackMigration(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	db, err := database.NewSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	defer db.Close()

	m := schema.NewMigrator(schema.FromSQL(db), schema.SQLite, logger)
	_, err = m.Migrate(ctx, migrations.Raw(schema.SQLite))
	require.NoError(t, err)

	require.NoError(t, m.RollbackMigration(ctx, migrations.CreateRawDocumentsSQLite))

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE name = 'raw_documents'").Scan(&count))
	assert.Zero(t, count)
}
