package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRunsImmediatelyAndRepeats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	done := make(chan struct{})

	go func() {
		Every(ctx, 10*time.Millisecond, "test", func(context.Context) error {
			if n.Add(1) >= 3 {
				cancel()
			}
			return errors.New("keeps going")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	if n.Load() < 3 {
		t.Errorf("ran %d times", n.Load())
	}
}
