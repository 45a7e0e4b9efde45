package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// timeLayout has fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// runLedger implements driven.RunLedger.
type runLedger struct {
	store *Store
}

var _ driven.RunLedger = (*runLedger)(nil)

// Begin stores a new run and returns it with its assigned ID.
func (l *runLedger) Begin(ctx context.Context, run domain.Run) (domain.Run, error) {
	if run.Command == "" {
		return domain.Run{}, fmt.Errorf("%w: run without command", domain.ErrInvalidInput)
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = domain.RunRunning
	}
	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return domain.Run{}, fmt.Errorf("marshalling inputs: %w", err)
	}

	_, err = l.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, inputs, output, partial, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Command, string(inputs), nullString(run.Output), nullString(run.Partial),
		run.StartedAt.UTC().Format(timeLayout), string(run.Status))
	if err != nil {
		return domain.Run{}, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// Complete stores the outcome of a run started with Begin.
func (l *runLedger) Complete(ctx context.Context, run domain.Run) error {
	res, err := l.store.db.ExecContext(ctx, `
		UPDATE runs SET ended_at = ?, status = ?, error = ?, records = ?
		WHERE id = ?
	`, formatNullableTime(run.EndedAt), string(run.Status), nullString(run.Error), run.Records, run.ID)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// Recent returns up to limit runs ordered by start time, most recent first.
func (l *runLedger) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, command, inputs, output, partial, started_at, ended_at, status, error, records
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// scanRun scans a run from *sql.Rows.
func scanRun(rows *sql.Rows) (*domain.Run, error) {
	var run domain.Run
	var inputs, startedAt, status string
	var output, partial, endedAt, errMsg sql.NullString

	if err := rows.Scan(&run.ID, &run.Command, &inputs, &output, &partial,
		&startedAt, &endedAt, &status, &errMsg, &run.Records); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshalling inputs: %w", err)
	}
	run.Output = output.String
	run.Partial = partial.String
	run.StartedAt = parseNullableTime(sql.NullString{String: startedAt, Valid: true})
	run.EndedAt = parseNullableTime(endedAt)
	run.Status = domain.RunStatus(status)
	run.Error = errMsg.String

	return &run, nil
}

// formatNullableTime formats a time in UTC, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime parses a nullable timestamp to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
