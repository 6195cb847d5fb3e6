package horse_racing

import (
	"context"
	"time"
)

// MaxTicks bounds a single race. Every sample is at least 1.0, so a race on a
// track of length L is over after at most ceil(L) ticks; the cap only guards a
// misbehaving RNG.
const MaxTicks = 1_000_000

// Run ticks the race until it finishes or ctx is cancelled. With a zero interval
// it runs headless; otherwise it waits interval between ticks. Cancelling stops the
// loop and leaves the race as it is, stake included.
func Run(ctx context.Context, r *Race, interval time.Duration) error {
	if r.Phase() == PhaseAwaitingSelection {
		return ErrRaceNotRunning
	}
	return RunFunc(ctx, interval, r.Tick)
}

// RunFunc schedules step until it reports completion. It lets callers wrap each
// tick, for example to hold a lock around it.
func RunFunc(ctx context.Context, interval time.Duration, step func() bool) error {
	if interval <= 0 {
		for i := 0; i < MaxTicks; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if step() {
				return nil
			}
		}
		return ErrRaceNotOver
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < MaxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ErrRaceNotOver
}
