package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/janus/internal/runner"
)

// WriteRun persists a run summary and its spec results in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same run
// twice leaves the first copy untouched.
func (s *Store) WriteRun(ctx context.Context, summary *runner.Summary) (err error) {
	if summary == nil || summary.RunID == "" {
		return fmt.Errorf("write run: %w", ErrInvalidRun)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, duration_ns, focused, filter, passed, failed, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		summary.RunID,
		summary.StartedAt.UTC().UnixNano(),
		int64(summary.Duration),
		boolToInt(summary.Focused),
		summary.Filter,
		summary.Passed,
		summary.Failed,
		summary.Total,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("write run: %w", err)
	} else if n == 0 {
		return tx.Commit()
	}

	for i, r := range summary.Results {
		if err := writeSpecResult(ctx, tx, summary.RunID, i, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func writeSpecResult(ctx context.Context, tx *sql.Tx, runID string, position int, r runner.SpecResult) error {
	diags, err := marshalDiagnostics(r.Diagnostics)
	if err != nil {
		return fmt.Errorf("write spec result %d: %w", position, err)
	}
	errs, err := marshalErrors(r.Errors)
	if err != nil {
		return fmt.Errorf("write spec result %d: %w", position, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO spec_results
		(run_id, position, description, focused, passed, not_run, diagnostics, errors, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		position,
		r.Description,
		boolToInt(r.Focused),
		boolToInt(r.Passed),
		boolToInt(r.NotRun),
		diags,
		errs,
		int64(r.Duration),
	)
	if err != nil {
		return fmt.Errorf("write spec result %d: %w", position, err)
	}
	return nil
}
