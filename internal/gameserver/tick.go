package gameserver

import (
	"context"
	"sync"
	"time"
)

// TickFunc is a callback invoked once per tick with the tick time.
type TickFunc func(now time.Time)

type namedTick struct {
	name string
	fn   TickFunc
}

// TickLoop runs registered callbacks periodically on a single goroutine.
// Callbacks run sequentially in registration order.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type TickLoop struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    []namedTick
	stopOnce sync.Once
	stop     chan struct{}
}

// NewTickLoop returns a loop that fires every interval.
//
// Precondition: interval must be > 0.
func NewTickLoop(interval time.Duration) *TickLoop {
	if interval <= 0 {
		panic("gameserver.NewTickLoop: interval must be > 0")
	}
	return &TickLoop{
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Interval returns the tick period.
func (l *TickLoop) Interval() time.Duration { return l.interval }

// Register adds fn under name. Replaces any existing callback of the same name in place.
func (l *TickLoop) Register(name string, fn TickFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.ticks {
		if l.ticks[i].name == name {
			l.ticks[i].fn = fn
			return
		}
	}
	l.ticks = append(l.ticks, namedTick{name: name, fn: fn})
}

// Unregister removes the callback registered under name.
func (l *TickLoop) Unregister(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.ticks {
		if l.ticks[i].name == name {
			l.ticks = append(l.ticks[:i], l.ticks[i+1:]...)
			return
		}
	}
}

// Fire invokes every callback once with now.
func (l *TickLoop) Fire(now time.Time) {
	l.mu.Lock()
	callbacks := make([]TickFunc, len(l.ticks))
	for i, t := range l.ticks {
		callbacks[i] = t.fn
	}
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(now)
	}
}

// Start runs the loop until ctx is cancelled or Stop is called.
//
// Postcondition: Returns nil; every registered callback has been invoked once per elapsed interval.
func (l *TickLoop) Start(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stop:
			return nil
		case now := <-ticker.C:
			l.Fire(now)
		}
	}
}

// Stop ends Start. Safe to call more than once.
func (l *TickLoop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
