package atomics

import (
	"runtime"
	"sync/atomic"
)

// Saturating subtraction (never wraps below zero).
// Gives up after maxRetries lost CAS races.
func Subtract(source *atomic.Uint64, value uint64, maxRetries int) (success bool) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		current := source.Load()
		if current == 0 {
			success = true
			return
		}

		next := uint64(0)
		if value < current {
			next = current - value
		}

		if source.CompareAndSwap(current, next) {
			success = true
			return
		}
		runtime.Gosched()
	}
	return
}

// Stores value into target only when it exceeds the current value
func StoreMax(target *atomic.Uint64, value uint64) {
	for {
		current := target.Load()
		if value <= current || target.CompareAndSwap(current, value) {
			return
		}
	}
}
