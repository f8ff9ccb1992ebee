package shop

import (
	"sync"
	"time"
)

// CloseTimer fires a callback after a configurable duration unless stopped.
// It is safe for concurrent use.
type CloseTimer struct {
	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
}

// NewCloseTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Precondition: duration > 0; onFire must not be nil.
// Postcondition: Returns a running CloseTimer; onFire will be called unless Stop is called first.
func NewCloseTimer(duration time.Duration, onFire func()) *CloseTimer {
	ct := &CloseTimer{}
	ct.Reset(duration, onFire)
	return ct
}

// Reset cancels the current timer and starts a new one with the provided duration and callback.
//
// Postcondition: only the callback of the latest Reset can fire.
func (ct *CloseTimer) Reset(duration time.Duration, onFire func()) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.timer != nil {
		ct.timer.Stop()
	}
	ct.generation++
	gen := ct.generation
	ct.timer = time.AfterFunc(duration, func() {
		ct.mu.Lock()
		live := ct.generation == gen
		ct.mu.Unlock()
		if live {
			onFire()
		}
	})
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onFire will not be called after Stop returns.
func (ct *CloseTimer) Stop() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.generation++
	if ct.timer != nil {
		ct.timer.Stop()
	}
}
