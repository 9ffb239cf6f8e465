// Package warehouse loads curated batches into the SQLite star schema.
//
// Every load is a full replace: dimensions and facts are deleted and
// re-inserted inside one transaction, so readers see either the previous
// load or the new one.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"talentinsight/common/database/schema"
	"talentinsight/common/database/schema/migrations"
	"talentinsight/common/errors"
	"talentinsight/common/telemetry"
	"talentinsight/services/processing/internal/catalog"
	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("talentinsight/processing/warehouse")

// Tables in dependency order: a table only references tables listed before
// it. Deletes run in reverse.
var tables = []string{
	"d_date",
	"d_country",
	"d_skill",
	"d_source",
	"d_company",
	"f_job_offers",
	"f_github_trends",
	"f_search_trends",
	"f_survey_responses",
	"f_survey_languages",
}

// SourceLoad counts the fact rows written for one raw source.
type SourceLoad struct {
	Loaded int
	// Sentinel is the number of rows where at least one key fell back to the
	// "Unknown" member or the fallback date.
	Sentinel int
}

type Result struct {
	Sources    map[string]SourceLoad
	Misses     map[dimension.Dimension]int
	MissedKeys map[dimension.Dimension]map[string]int
	Rows       map[string]int
}

type Loader struct {
	db      *sql.DB
	catalog *catalog.Catalog
	horizon dimension.Horizon
	logger  *zap.Logger
}

func NewLoader(db *sql.DB, cat *catalog.Catalog, horizon dimension.Horizon, logger *zap.Logger) *Loader {
	return &Loader{
		db:      db,
		catalog: cat,
		horizon: horizon,
		logger:  logger,
	}
}

// Migrate creates any missing warehouse tables. It is safe to call on every
// run.
func (l *Loader) Migrate(ctx context.Context) error {
	m := schema.NewMigrator(schema.FromSQL(l.db), schema.SQLite, l.logger)
	n, err := m.Migrate(ctx, migrations.Warehouse())
	if err != nil {
		return errors.Load("warehouse schema migration failed", err)
	}
	if n > 0 {
		l.logger.Info("warehouse schema migrated", zap.Int("applied", n))
	}
	return nil
}

// Load replaces the warehouse content with cur. On any error the transaction
// is rolled back and the previous content stays visible.
func (l *Loader) Load(ctx context.Context, cur *models.Curated) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Loader.Load")
	defer span.End()
	start := time.Now()

	if err := l.Migrate(ctx); err != nil {
		return nil, err
	}

	resolver, dims, err := buildDimensions(l.catalog, l.horizon, cur, l.logger)
	if err != nil {
		return nil, errors.Load("build dimensions", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Load("begin load transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				l.logger.Error("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err := truncate(ctx, tx); err != nil {
		return nil, errors.Load("clear warehouse tables", err)
	}
	if err := dropIndexes(ctx, tx); err != nil {
		return nil, errors.Load("drop indexes", err)
	}
	if err := insertDimensions(ctx, tx, dims); err != nil {
		return nil, errors.Load("insert dimensions", err)
	}

	w := &factWriter{tx: tx, resolver: resolver}
	sources := make(map[string]SourceLoad, len(cur.Batches))
	for _, b := range cur.Batches {
		load, err := w.writeBatch(ctx, b)
		if err != nil {
			return nil, errors.Load(fmt.Sprintf("insert facts for %s", b.RawSource), err)
		}
		prev := sources[b.RawSource]
		sources[b.RawSource] = SourceLoad{Loaded: prev.Loaded + load.Loaded, Sentinel: prev.Sentinel + load.Sentinel}
	}

	if err := createIndexes(ctx, tx); err != nil {
		return nil, errors.Load("create indexes", err)
	}
	if err := CheckIntegrity(ctx, tx); err != nil {
		return nil, err
	}

	rows, err := countRows(ctx, tx)
	if err != nil {
		return nil, errors.Load("count rows", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Load("commit load transaction", err)
	}
	committed = true

	res := &Result{
		Sources:    sources,
		Misses:     resolver.Misses(),
		MissedKeys: make(map[dimension.Dimension]map[string]int),
		Rows:       rows,
	}
	for dim := range res.Misses {
		res.MissedKeys[dim] = resolver.MissedKeys(dim)
	}

	span.SetAttributes(telemetry.Int("rows.job_offers", rows["f_job_offers"]))
	l.logger.Info("warehouse loaded",
		zap.Any("rows", rows),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

func truncate(ctx context.Context, tx *sql.Tx) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tables[i]); err != nil {
			return fmt.Errorf("delete %s: %w", tables[i], err)
		}
	}
	return nil
}

func countRows(ctx context.Context, tx *sql.Tx) (map[string]int, error) {
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out[t] = n
	}
	return out, nil
}

func insertDimensions(ctx context.Context, tx *sql.Tx, d *dimensions) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO d_date (date_key, day, month, quarter, year, day_week) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, date := range d.dates {
		if _, err := stmt.ExecContext(ctx, date.Key, date.Day, date.Month, date.Quarter, date.Year, date.Weekday); err != nil {
			return fmt.Errorf("insert date %s: %w", date.Key, err)
		}
	}

	for _, c := range d.countries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO d_country (id_country, iso2, country_name, region, currency) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.ISO2, c.Name, nullString(c.Region), nullString(c.Currency)); err != nil {
			return fmt.Errorf("insert country %s: %w", c.ISO2, err)
		}
	}

	for _, s := range d.skills {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO d_skill (id_skill, skill_group, tech_label) VALUES (?, ?, ?)`,
			s.ID, nullString(s.Group), s.Label); err != nil {
			return fmt.Errorf("insert skill %s: %w", s.Label, err)
		}
	}

	for _, s := range d.sources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO d_source (id_source, source_name) VALUES (?, ?)`,
			s.ID, s.Name); err != nil {
			return fmt.Errorf("insert source %s: %w", s.Name, err)
		}
	}

	for _, c := range d.companies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO d_company (id_company, company_name, sector) VALUES (?, ?, ?)`,
			c.ID, c.Name, nullString(c.Sector)); err != nil {
			return fmt.Errorf("insert company %s: %w", c.Name, err)
		}
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
