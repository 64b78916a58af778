package database

import (
	"database/sql"
	"errors"
)

// StartRun records a new run in the "running" state and returns its ID.
func (db *DB) StartRun(lookbackDays, pages int, outputDir string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs (lookback_days, pages, output_dir) VALUES (?, ?, ?)`,
		lookbackDays, pages, outputDir,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecordCounts stores the collection totals for a run.
func (db *DB) RecordCounts(runID int64, c RunCounts) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET cutoff = ?, candidates = ?, articles = ? WHERE id = ?`,
		c.Cutoff, c.Candidates, c.Articles, runID,
	)
	return err
}

// FinishRun marks a run as finished. A non-nil runErr marks it failed.
func (db *DB) FinishRun(runID int64, summaryMarkdown string, runErr error) error {
	status := "ok"
	var errText *string
	if runErr != nil {
		status = "failed"
		s := runErr.Error()
		errText = &s
	}
	var summary *string
	if summaryMarkdown != "" {
		summary = &summaryMarkdown
	}
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = datetime('now'), status = ?, error = ?, summary_markdown = ?
		WHERE id = ?`,
		status, errText, summary, runID,
	)
	return err
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(runID int64) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, started_at, finished_at, status, error, lookback_days, pages, cutoff,
		candidates, articles, summary_markdown, output_dir
		FROM runs WHERE id = ?`, runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// GetRecentRuns returns up to limit runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, started_at, finished_at, status, error, lookback_days, pages, cutoff,
		candidates, articles, summary_markdown, output_dir
		FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM runs", &s.Runs},
		{"SELECT COUNT(*) FROM runs WHERE status = 'failed'", &s.FailedRuns},
		{"SELECT COUNT(*) FROM articles", &s.Articles},
		{"SELECT COUNT(*) FROM mentions", &s.Mentions},
		{"SELECT COUNT(*) FROM recommendations", &s.Recommendations},
		{"SELECT COUNT(DISTINCT symbol) FROM mentions", &s.Symbols},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(started_at) FROM runs").Scan(&last); err != nil {
		return nil, err
	}
	s.LastRunAt = last.String

	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Error, &r.LookbackDays,
		&r.Pages, &r.Cutoff, &r.Candidates, &r.Articles, &r.SummaryMarkdown, &r.OutputDir)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
