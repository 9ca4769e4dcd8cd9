package scheduler

import (
	"context"
	"time"
)

// Driver advances a queue by the wall-clock time elapsed between ticks, used
// by the server process. Tests drive the queue directly.
type Driver struct {
	Queue    *Queue
	Interval time.Duration
	// Now reads wall-clock time; defaults to time.Now.
	Now func() time.Time
}

// Run ticks until ctx is done and returns ctx.Err().
func (d Driver) Run(ctx context.Context) error {
	interval := d.Interval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current := now()
			d.Queue.Advance(ctx, current.Sub(last))
			last = current
		}
	}
}
