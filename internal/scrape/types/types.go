package types

import (
	"context"
	"errors"

	"leadscout-engine/internal/domain"
)

// Adapter pulls candidates from one origin. Fetch must be safe to call with
// a context that carries only the per-origin deadline; it returns whatever it
// gathered along with per-page failures. An error return means the origin as
// a whole was unavailable.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}

type ScrapeResult struct {
	Origin     string
	Candidates []domain.RawCandidate
	Malformed  int // items skipped for missing url/title/text
	Pages      int // listing pages or API calls attempted
	PageErrors []error

	// Finalize runs after the run's merge commits. Inbox uses it to mark
	// messages seen only once their leads are stored.
	Finalize func(context.Context) error
}

// Add appends c unless it lacks a URL or any text, counting it malformed.
func (r *ScrapeResult) Add(c domain.RawCandidate) {
	if c.URL == "" || (c.Title == "" && c.Text == "") {
		r.Malformed++
		return
	}
	if c.Origin == "" {
		c.Origin = r.Origin
	}
	r.Candidates = append(r.Candidates, c)
}

// PageFailed records a failed page or call.
func (r *ScrapeResult) PageFailed(err error) {
	if err != nil {
		r.PageErrors = append(r.PageErrors, err)
	}
}

// AllPagesFailed is true when something was attempted and nothing worked.
func (r ScrapeResult) AllPagesFailed() bool {
	return r.Pages > 0 && len(r.PageErrors) >= r.Pages
}

// ErrNoTargets means an enabled origin had nothing to fetch, usually an empty
// query or base list.
var ErrNoTargets = errors.New("no queries or targets configured")

// Outcome is the error Fetch should return for r: nil unless nothing was
// attempted or every page failed. Either way the origin counts as
// unavailable rather than reporting an empty result.
func (r ScrapeResult) Outcome() error {
	if r.Pages == 0 {
		return domain.Unavailable(r.Origin, "config", ErrNoTargets)
	}
	if !r.AllPagesFailed() {
		return nil
	}
	return domain.Unavailable(r.Origin, "fetch", errors.Join(r.PageErrors...))
}

// Status is what the status endpoint reports about the last run.
type Status struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastAdded int    `json:"last_added"`
	Running   bool   `json:"running"`
	State     string `json:"state"`
	LastRunID string `json:"last_run_id"`
	LastMode  string `json:"last_mode"`
}
