// Package shop provides the inter-wave shop gate: it opens after a wave is cleared and
// notifies subscribers once it closes.
package shop

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Subscription is the handle returned by Subscribe and required by Unsubscribe.
type Subscription struct {
	id uint64
}

type closedSub struct {
	id uint64
	fn func()
}

// TimedGate is a shop gate that closes either when Close is called or, when a positive
// duration is configured, automatically after that duration.
// All methods are safe for concurrent use. Closed callbacks run outside the gate's lock.
type TimedGate struct {
	mu       sync.Mutex
	open     bool
	duration time.Duration
	timer    *CloseTimer
	nextID   uint64
	subs     []closedSub
	opened   int
	logger   *zap.Logger
}

// NewTimedGate creates a closed gate. duration <= 0 disables auto-close.
//
// Precondition: logger must be non-nil.
func NewTimedGate(duration time.Duration, logger *zap.Logger) *TimedGate {
	return &TimedGate{duration: duration, logger: logger}
}

// Open opens the gate. Opening an open gate is a no-op.
//
// Postcondition: IsOpen() is true; if auto-close is enabled, Close fires after the duration.
func (g *TimedGate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return
	}
	g.open = true
	g.opened++
	g.logger.Info("shop opened", zap.Int("visit", g.opened), zap.Duration("duration", g.duration))
	if g.duration <= 0 {
		return
	}
	if g.timer == nil {
		g.timer = NewCloseTimer(g.duration, g.Close)
		return
	}
	g.timer.Reset(g.duration, g.Close)
}

// Close closes the gate and notifies every subscriber in subscription order.
// Closing a closed gate is a no-op.
func (g *TimedGate) Close() {
	g.mu.Lock()
	if !g.open {
		g.mu.Unlock()
		return
	}
	g.open = false
	if g.timer != nil {
		g.timer.Stop()
	}
	fns := make([]func(), 0, len(g.subs))
	for _, s := range g.subs {
		fns = append(fns, s.fn)
	}
	g.mu.Unlock()

	g.logger.Info("shop closed")
	for _, fn := range fns {
		fn()
	}
}

// IsOpen reports whether the gate is open.
func (g *TimedGate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Visits returns how many times the gate has been opened.
func (g *TimedGate) Visits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opened
}

// Subscribe registers fn to run every time the gate closes.
func (g *TimedGate) Subscribe(fn func()) Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.subs = append(g.subs, closedSub{id: g.nextID, fn: fn})
	return Subscription{id: g.nextID}
}

// Unsubscribe removes the subscription identified by s.
//
// Postcondition: Returns false if s was not subscribed.
func (g *TimedGate) Unsubscribe(s Subscription) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, sub := range g.subs {
		if sub.id == s.id {
			g.subs = append(g.subs[:i], g.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Shutdown stops any pending auto-close without notifying subscribers.
func (g *TimedGate) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
}
