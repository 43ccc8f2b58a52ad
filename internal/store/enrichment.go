package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// GetEnrichment returns the cached payload for domain if it was fetched
// within maxAge.
func (d *DB) GetEnrichment(ctx context.Context, domain string, maxAge time.Duration, now time.Time) ([]byte, bool, error) {
	domain = normalizeDomainKey(domain)
	if domain == "" {
		return nil, false, nil
	}

	var (
		payload []byte
		fetched string
	)
	err := d.Pool.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM enrichment_cache WHERE domain = ? LIMIT 1;`,
		domain,
	).Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if maxAge > 0 && now.Sub(parseTime(fetched)) > maxAge {
		return nil, false, nil
	}
	return payload, true, nil
}

func (d *DB) PutEnrichment(ctx context.Context, domain string, payload []byte, now time.Time) error {
	domain = normalizeDomainKey(domain)
	if domain == "" {
		return nil
	}
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO enrichment_cache(domain, payload, fetched_at)
VALUES(?,?,?)
ON CONFLICT(domain) DO UPDATE SET
  payload = excluded.payload,
  fetched_at = excluded.fetched_at;
`, domain, payload, formatTime(now))
	return err
}

func normalizeDomainKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}
