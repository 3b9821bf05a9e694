package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/janus/internal/runner"
)

var (
	// ErrRunNotFound is returned by ReadRun for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRun is returned by WriteRun for a summary without a run ID.
	ErrInvalidRun = errors.New("run summary has no run ID")
)

// DefaultListLimit bounds ListRuns when no positive limit is given.
const DefaultListLimit = 20

// RunInfo is one row of the run history listing.
type RunInfo struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Focused   bool          `json:"focused"`
	Filter    string        `json:"filter,omitempty"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Total     int           `json:"total"`
}

// ListRuns returns the most recent runs, newest first.
//
// Returns an empty slice (not nil) if no runs are stored.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ns, focused, filter, passed, failed, total
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun loads a stored run with its spec results in execution order.
func (s *Store) ReadRun(ctx context.Context, runID string) (*runner.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ns, focused, filter, passed, failed, total
		FROM runs
		WHERE id = ?
	`, runID)
	info, err := scanRunInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	results, err := s.readSpecResults(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &runner.Summary{
		RunID:     info.RunID,
		StartedAt: info.StartedAt,
		Duration:  info.Duration,
		Focused:   info.Focused,
		Filter:    info.Filter,
		Results:   results,
		Passed:    info.Passed,
		Failed:    info.Failed,
		Total:     info.Total,
	}, nil
}

func (s *Store) readSpecResults(ctx context.Context, runID string) ([]runner.SpecResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, focused, passed, not_run, diagnostics, errors, duration_ns
		FROM spec_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query spec results: %w", err)
	}
	defer rows.Close()

	var results []runner.SpecResult
	for rows.Next() {
		var (
			r                       runner.SpecResult
			focused, passed, notRun int
			diags, errs             string
			duration                int64
		)
		if err := rows.Scan(&r.Description, &focused, &passed, &notRun, &diags, &errs, &duration); err != nil {
			return nil, fmt.Errorf("scan spec result: %w", err)
		}
		r.Focused = focused != 0
		r.Passed = passed != 0
		r.NotRun = notRun != 0
		r.Duration = time.Duration(duration)
		if r.Diagnostics, err = unmarshalDiagnostics(diags); err != nil {
			return nil, err
		}
		if r.Errors, err = unmarshalErrors(errs); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spec results: %w", err)
	}
	return results, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRunInfo(sc scanner) (RunInfo, error) {
	var (
		info           RunInfo
		startedAt, dur int64
		focused        int
	)
	err := sc.Scan(&info.RunID, &startedAt, &dur, &focused, &info.Filter, &info.Passed, &info.Failed, &info.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, err
	}
	if err != nil {
		return RunInfo{}, fmt.Errorf("scan run: %w", err)
	}
	info.StartedAt = time.Unix(0, startedAt).UTC()
	info.Duration = time.Duration(dur)
	info.Focused = focused != 0
	return info, nil
}
