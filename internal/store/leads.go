package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadscout-engine/internal/domain"
)

const leadColumns = `id, origin, url, title, agency, closing_date, raw_text, tags,
  confidence, project_weight, recency_factor, trust, score, status,
  first_seen, last_seen, posted_at, last_run_id`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanLead(sc interface{ Scan(...any) error }) (domain.Lead, error) {
	var (
		l                   domain.Lead
		tags, status        string
		firstSeen, lastSeen string
		posted              sql.NullString
	)
	err := sc.Scan(&l.ID, &l.Origin, &l.URL, &l.Title, &l.Agency, &l.ClosingDate, &l.Excerpt, &tags,
		&l.Confidence, &l.ProjectWeight, &l.Recency, &l.Trust, &l.Score, &status,
		&firstSeen, &lastSeen, &posted, &l.LastRunID)
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal([]byte(tags), &l.Tags); err != nil || l.Tags == nil {
		l.Tags = []string{}
	}
	l.Status = domain.Status(status)
	l.FirstSeen = parseTime(firstSeen)
	l.LastSeen = parseTime(lastSeen)
	l.PostedAt = timePtr(posted)
	return l, nil
}

func getLead(ctx context.Context, q queryer, id string) (*domain.Lead, error) {
	row := q.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?;`, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead %s: %w", id, err)
	}
	return &l, nil
}

// GetLead returns the lead with id, nil when absent.
func (d *DB) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	return getLead(ctx, d.Pool, id)
}

// ListLeads returns active leads (plus stale ones when includeStale) in
// output order: score descending, then id. Rejected leads are never listed.
func (d *DB) ListLeads(ctx context.Context, includeStale bool) ([]domain.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE status = 'active'`
	if includeStale {
		q = `SELECT ` + leadColumns + ` FROM leads WHERE status IN ('active', 'stale')`
	}
	rows, err := d.Pool.QueryContext(ctx, q+` ORDER BY score DESC, id ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []domain.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountByStatus is for the status endpoint.
func (d *DB) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.Status]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[domain.Status(s)] = n
	}
	return out, rows.Err()
}

// SetStatus lets the operator reject (or restore) a lead. It is not a
// pipeline merge, so it does not advance the generation.
func (d *DB) SetStatus(ctx context.Context, id string, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := d.Pool.ExecContext(ctx, `UPDATE leads SET status = ? WHERE id = ?;`, string(status), id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Generation is bumped by every committed run. A run reads it when it starts
// and hands it back to WithRun.
func (d *DB) Generation(ctx context.Context) (int64, error) {
	var g int64
	err := d.Pool.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'generation';`).Scan(&g)
	return g, err
}

// RunTx is the single writer for one run's merge phase.
type RunTx struct {
	tx *sql.Tx
}

// WithRun runs fn inside one IMMEDIATE transaction. If another run committed
// since expectGen was read, nothing is written and the error wraps
// domain.ErrStoreWriteConflict. Any error from fn rolls everything back.
func (d *DB) WithRun(ctx context.Context, expectGen int64, fn func(*RunTx) error) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var gen int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'generation';`).Scan(&gen); err != nil {
		return fmt.Errorf("read generation: %w", err)
	}
	if gen != expectGen {
		return fmt.Errorf("%w: generation %d, expected %d", domain.ErrStoreWriteConflict, gen, expectGen)
	}

	if err := fn(&RunTx{tx: tx}); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = value + 1 WHERE key = 'generation';`); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

func (t *RunTx) Get(ctx context.Context, id string) (*domain.Lead, error) {
	return getLead(ctx, t.tx, id)
}

// Put inserts or replaces a lead.
func (t *RunTx) Put(ctx context.Context, l domain.Lead) error {
	tags, err := json.Marshal(l.Tags)
	if err != nil {
		return err
	}
	if l.Tags == nil {
		tags = []byte("[]")
	}
	_, err = t.tx.ExecContext(ctx, `
INSERT INTO leads(`+leadColumns+`)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  origin = excluded.origin,
  url = excluded.url,
  title = excluded.title,
  agency = excluded.agency,
  closing_date = excluded.closing_date,
  raw_text = excluded.raw_text,
  tags = excluded.tags,
  confidence = excluded.confidence,
  project_weight = excluded.project_weight,
  recency_factor = excluded.recency_factor,
  trust = excluded.trust,
  score = excluded.score,
  status = excluded.status,
  first_seen = excluded.first_seen,
  last_seen = excluded.last_seen,
  posted_at = excluded.posted_at,
  last_run_id = excluded.last_run_id;`,
		l.ID, l.Origin, l.URL, l.Title, l.Agency, l.ClosingDate, l.Excerpt, string(tags),
		l.Confidence, l.ProjectWeight, l.Recency, l.Trust, l.Score, string(l.Status),
		formatTime(l.FirstSeen), formatTime(l.LastSeen), nullTime(l.PostedAt), l.LastRunID,
	)
	if err != nil {
		return fmt.Errorf("put lead %s: %w", l.ID, err)
	}
	return nil
}

// MarkStale archives active leads the run did not touch whose age (posted
// time, else last seen) is before cutoff.
func (t *RunTx) MarkStale(ctx context.Context, runID string, cutoff time.Time) (int, error) {
	res, err := t.tx.ExecContext(ctx, `
UPDATE leads SET status = 'stale'
WHERE status = 'active'
  AND last_run_id != ?
  AND COALESCE(posted_at, last_seen) < ?;`, runID, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("mark stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// MarkStaleKeys archives the given leads if they are active. The run uses it
// for candidates the recency filter dropped.
func (t *RunTx) MarkStaleKeys(ctx context.Context, ids []string) (int, error) {
	total := 0
	for start := 0; start < len(ids); start += 500 {
		end := min(start+500, len(ids))
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		q := `UPDATE leads SET status = 'stale' WHERE status = 'active' AND id IN (?` +
			strings.Repeat(",?", len(chunk)-1) + `);`
		res, err := t.tx.ExecContext(ctx, q, args...)
		if err != nil {
			return total, fmt.Errorf("mark stale keys: %w", err)
		}
		n, _ := res.RowsAffected()
		total += int(n)
	}
	return total, nil
}
