package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RunRecord is a finished run as stored. Summary is opaque JSON owned by the
// orchestrator.
type RunRecord struct {
	ID         string          `json:"id"`
	Mode       string          `json:"mode"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	State      string          `json:"state"`
	Summary    json.RawMessage `json:"summary"`
}

// SaveRun records the run inside its merge transaction, so a rolled back
// merge leaves no run row behind.
func (t *RunTx) SaveRun(ctx context.Context, r RunRecord) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO runs(id, mode, started_at, finished_at, state, summary)
VALUES(?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  finished_at = excluded.finished_at,
  state = excluded.state,
  summary = excluded.summary;`,
		r.ID, r.Mode, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.State, string(r.Summary))
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// LatestRun returns the most recently finished run, nil when there is none.
func (d *DB) LatestRun(ctx context.Context) (*RunRecord, error) {
	var (
		r                 RunRecord
		started, finished string
		summary           string
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, mode, started_at, finished_at, state, summary
FROM runs
ORDER BY finished_at DESC
LIMIT 1;`).Scan(&r.ID, &r.Mode, &started, &finished, &r.State, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	r.Summary = json.RawMessage(summary)
	return &r, nil
}

// FinishRun rewrites a stored run once formatting is done. It is not a merge
// and leaves the generation alone.
func (d *DB) FinishRun(ctx context.Context, r RunRecord) error {
	res, err := d.Pool.ExecContext(ctx, `
UPDATE runs SET finished_at = ?, state = ?, summary = ?
WHERE id = ?;`, formatTime(r.FinishedAt), r.State, string(r.Summary), r.ID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
