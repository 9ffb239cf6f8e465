package warehouse

import (
	"context"
	"database/sql"
	"time"

	"talentinsight/common/errors"
)

const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one row of the load_runs audit table.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Error      string
	Report     []byte
}

// StartRun records a run before its load begins, so a crash mid-load still
// leaves a trace.
func (l *Loader) StartRun(ctx context.Context, id string, startedAt time.Time) error {
	if err := l.Migrate(ctx); err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO load_runs (run_id, started_at, status) VALUES (?, ?, ?)`,
		id, startedAt.UTC(), RunRunning); err != nil {
		return errors.Load("record run start", err)
	}
	return nil
}

func (l *Loader) FinishRun(ctx context.Context, id string, finishedAt time.Time, runErr error, report []byte) error {
	status, msg := RunSucceeded, sql.NullString{}
	if runErr != nil {
		status = RunFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if _, err := l.db.ExecContext(ctx,
		`UPDATE load_runs SET finished_at = ?, status = ?, error = ?, report = ? WHERE run_id = ?`,
		finishedAt.UTC(), status, msg, string(report), id); err != nil {
		return errors.Load("record run finish", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (l *Loader) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, status, error, report
		FROM load_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Load("query load runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
			msg      sql.NullString
			report   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &msg, &report); err != nil {
			return nil, errors.Load("scan load run", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		r.Error = msg.String
		if report.Valid {
			r.Report = []byte(report.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
