package poll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leadscout-engine/internal/scheduler"
)

// StartPoller runs the pipeline every interval in the background until ctx
// is done. A tick that finds a run already going is not an error.
func StartPoller(ctx context.Context, r *Runner, every time.Duration) {
	if every <= 0 {
		return
	}
	go scheduler.Every(ctx, every, "poll", func(ctx context.Context) error {
		_, err := r.Run(ctx, "")
		if errors.Is(err, ErrRunInProgress) {
			r.log.Info().Msg("skipping tick, run in progress")
			return nil
		}
		return err
	})
}

// LatestSummary prefers this process's last run, which includes failed runs
// the store never saw, and falls back to the stored history.
func (r *Runner) LatestSummary(ctx context.Context) (*RunSummary, error) {
	if s := r.Last(); s != nil {
		return s, nil
	}
	rec, err := r.DB.LatestRun(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	var s RunSummary
	if err := json.Unmarshal(rec.Summary, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
