package session

import (
	"context"
	"time"
)

// RunTicker drives Tick at a fixed interval until the attempt leaves
// InProgress or ctx is cancelled. onExpire runs once, on the goroutine that
// called RunTicker, when the countdown reaches zero.
func RunTicker(ctx context.Context, state *State, interval time.Duration, onExpire func()) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if state.Tick() {
				if onExpire != nil {
					onExpire()
				}
				return
			}
			if state.Phase() != InProgress {
				return
			}
		}
	}
}
