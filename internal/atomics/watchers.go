// Helper functions that deal with atomic counters shared between the relay loop and observers
package atomics

import (
	"sync/atomic"
	"time"
)

// Consecutive zero observations required before a counter counts as drained
const zeroStreakRequired int = 3

// Polls value until it reads zero several times in a row or timeout elapses.
// Backoff doubles from 10ms up to 250ms.
func WaitUntilZero(value *atomic.Uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	backoff := 10 * time.Millisecond
	const maxBackoff = 250 * time.Millisecond

	deadline := time.Now().Add(timeout)
	streak := 0
	for {
		lastValue = value.Load()
		if lastValue == 0 {
			streak++
			if streak >= zeroStreakRequired {
				reachedZero = true
				return
			}
		} else {
			streak = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		time.Sleep(min(backoff, remaining))
		backoff = min(backoff*2, maxBackoff)
	}
}
