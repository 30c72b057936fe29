package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// BeginRun records the start of an analysis of root.
func (s *Store) BeginRun(root string, startedAt time.Time) (int64, error) {
	res, err := s.db.Exec("INSERT INTO runs (root, started_at) VALUES (?, ?)", root, startedAt)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishRun stores the run's totals.
func (s *Store) FinishRun(runID int64, finishedAt time.Time, fileCount, diagnosticCount int) error {
	_, err := s.db.Exec(
		"UPDATE runs SET finished_at = ?, file_count = ?, diagnostic_count = ? WHERE id = ?",
		finishedAt, fileCount, diagnosticCount, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runCols = `id, root, started_at, finished_at, file_count, diagnostic_count`

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var finished sql.NullTime
	if err := scanner.Scan(&r.ID, &r.Root, &r.StartedAt, &finished, &r.FileCount, &r.DiagnosticCount); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// LatestRun returns the most recent finished run, or nil when there is none.
func (s *Store) LatestRun() (*Run, error) {
	r, err := scanRun(s.db.QueryRow(
		"SELECT " + runCols + " FROM runs WHERE finished_at IS NOT NULL ORDER BY id DESC LIMIT 1",
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// RunByID returns a run, or nil when it does not exist.
func (s *Store) RunByID(id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runCols+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// InsertDiagnostics stores a run's diagnostics in one transaction.
func (s *Store) InsertDiagnostics(runID int64, diags []Diagnostic) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("insert diagnostics: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO diagnostics (run_id, rule_id, severity, path, start_line, start_col, end_line, end_col,
			start_byte, end_byte, message, fix_name, fix_old, fix_new)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("insert diagnostics: prepare: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.Exec(
			runID, d.RuleID, d.Severity, d.Path, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
			d.StartByte, d.EndByte, d.Message, d.FixName, d.FixOld, d.FixNew,
		); err != nil {
			return fmt.Errorf("insert diagnostics: %s:%d: %w", d.Path, d.StartLine, err)
		}
	}
	return tx.Commit()
}

// DiagnosticFilter narrows DiagnosticsByRun. Empty fields match everything.
type DiagnosticFilter struct {
	Rules      []string
	PathPrefix string
}

// DiagnosticsByRun returns a run's diagnostics in insertion order.
func (s *Store) DiagnosticsByRun(runID int64, filter DiagnosticFilter) ([]*Diagnostic, error) {
	var (
		where = []string{"run_id = ?"}
		args  = []any{runID}
	)
	if len(filter.Rules) > 0 {
		where = append(where, "rule_id IN ("+placeholderList(len(filter.Rules))+")")
		args = append(args, stringsToArgs(filter.Rules)...)
	}
	if filter.PathPrefix != "" {
		where = append(where, "substr(path, 1, ?) = ?")
		args = append(args, len(filter.PathPrefix), filter.PathPrefix)
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, rule_id, severity, path, start_line, start_col, end_line, end_col,
			start_byte, end_byte, message, fix_name, fix_old, fix_new
		 FROM diagnostics WHERE `+strings.Join(where, " AND ")+` ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by run: %w", err)
	}
	defer rows.Close()

	var out []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		if err := rows.Scan(
			&d.ID, &d.RunID, &d.RuleID, &d.Severity, &d.Path, &d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol,
			&d.StartByte, &d.EndByte, &d.Message, &d.FixName, &d.FixOld, &d.FixNew,
		); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RuleCounts returns the number of diagnostics per rule for a run.
func (s *Store) RuleCounts(runID int64) (map[string]int, error) {
	rows, err := s.db.Query(
		"SELECT rule_id, COUNT(*) FROM diagnostics WHERE run_id = ? GROUP BY rule_id", runID,
	)
	if err != nil {
		return nil, fmt.Errorf("rule counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, fmt.Errorf("scan rule count: %w", err)
		}
		counts[rule] = n
	}
	return counts, rows.Err()
}
