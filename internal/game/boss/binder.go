package boss

import "sync"

// Display receives boss health notifications. Delivery is fire-and-forget.
type Display interface {
	OnBossHealthChanged(current, total float64)
	OnBossDefeated()
}

// Binder attaches a Display to at most one pool at a time.
//
// Invariant: the previous pool's subscriptions are removed before the next pool is
// subscribed, so a stale pool can never reach the display.
type Binder struct {
	mu      sync.Mutex
	display Display
	pool    *Pool
	health  Subscription
	defeat  Subscription
}

// NewBinder creates a Binder for display.
//
// Precondition: display must be non-nil.
func NewBinder(display Display) *Binder {
	return &Binder{display: display}
}

// Initialize binds the display to p, detaching any previously bound pool first.
// Binding the already-bound pool again is a no-op.
//
// Postcondition: the display holds exactly one health and one defeat subscription, both on p.
func (b *Binder) Initialize(p *Pool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p == nil {
		b.detachLocked()
		return
	}
	if b.pool == p {
		return
	}
	b.detachLocked()
	b.pool = p
	b.health = p.OnHealthChanged(b.display.OnBossHealthChanged)
	b.defeat = p.OnDefeated(b.display.OnBossDefeated)
}

// Detach removes the display's subscriptions from the bound pool, if any.
func (b *Binder) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked()
}

// Bound returns the currently bound pool, or nil.
func (b *Binder) Bound() *Pool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pool
}

func (b *Binder) detachLocked() {
	if b.pool == nil {
		return
	}
	b.pool.Unsubscribe(b.health)
	b.pool.Unsubscribe(b.defeat)
	b.pool = nil
	b.health = Subscription{}
	b.defeat = Subscription{}
}
