package schedule

import (
	"context"
	"time"
)

// RunAt invokes fn in its own goroutine once the wall clock reaches runAt.
// A runAt in the past fires immediately. If ctx is cancelled before the
// deadline, fn never runs.
func RunAt(ctx context.Context, runAt time.Time, fn func(ctx context.Context)) {
	go func() {
		timer := time.NewTimer(time.Until(runAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			fn(ctx)
		}
	}()
}
