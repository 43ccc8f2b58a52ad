package scheduler

import (
	"context"
	"time"

	"leadscout-engine/internal/logger"
)

type Task func(ctx context.Context) error

// Every runs task once immediately and then on each tick until ctx is done.
// Runs never overlap: a tick that fires while task is busy is skipped.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	log := logger.Named("scheduler").With().Str("task", name).Logger()

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.Error().Err(err).Dur("took", time.Since(start)).Msg("task failed")
			return
		}
		log.Debug().Dur("took", time.Since(start)).Msg("task done")
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
