// Package boss provides the shared health pool used by multi-part boss encounters,
// the registry that maps part entities to their owning pool, and the rebindable
// display listener.
package boss

import (
	"fmt"
	"sync"
)

// PoolID identifies a pool by arena and allocation index.
type PoolID struct {
	Arena string
	Index int
}

// String returns "arena#index".
func (id PoolID) String() string {
	return fmt.Sprintf("%s#%d", id.Arena, id.Index)
}

type subKind int

const (
	subHealth subKind = iota
	subDefeated
)

// Subscription is the handle returned by OnHealthChanged and OnDefeated.
// It is required to unsubscribe.
type Subscription struct {
	pool *Pool
	id   uint64
}

// Valid reports whether the handle refers to a subscription that was issued.
// A valid handle may already have been removed.
func (s Subscription) Valid() bool {
	return s.pool != nil && s.id != 0
}

type subscriber struct {
	id       uint64
	kind     subKind
	onHealth func(current, total float64)
	onDefeat func()
}

// Pool is a shared, aggregated health value for a multi-part encounter.
// All methods are safe for concurrent use. Callbacks run on the caller's goroutine,
// after the pool's lock has been released.
//
// Invariant: 0 <= current <= total; once defeated or destroyed the pool is inert.
type Pool struct {
	mu        sync.Mutex
	id        PoolID
	current   float64
	total     float64
	defeated  bool
	destroyed bool
	nextSub   uint64
	subs      []subscriber
	dismantle func()
}

// NewPool creates a full-health pool not tracked by any registry.
//
// Precondition: total > 0.
// Postcondition: Current() == Total() == total.
func NewPool(id PoolID, total float64) *Pool {
	return &Pool{id: id, current: total, total: total}
}

// ID returns the pool identifier.
func (p *Pool) ID() PoolID { return p.id }

// Current returns the remaining health.
func (p *Pool) Current() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Total returns the maximum health.
func (p *Pool) Total() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Defeated reports whether health reached zero.
func (p *Pool) Defeated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defeated
}

// Alive reports whether the pool is neither defeated nor destroyed.
func (p *Pool) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.defeated && !p.destroyed
}

// SetTotal rescales the pool to total and fills it.
//
// Precondition: total > 0.
// Postcondition: Current() == Total() == total and health-changed subscribers are notified,
// unless the pool is already inert, in which case this is a no-op.
func (p *Pool) SetTotal(total float64) {
	p.mu.Lock()
	if p.defeated || p.destroyed || total <= 0 {
		p.mu.Unlock()
		return
	}
	p.total = total
	p.current = total
	health, _ := p.snapshotLocked()
	p.mu.Unlock()

	for _, fn := range health {
		fn(total, total)
	}
}

// TakeDamage subtracts amount from the pool.
//
// Postcondition: No-op when current health is already 0, the pool is destroyed, or
// amount < 0. Otherwise current is reduced and clamped at 0, health-changed subscribers
// receive (current, total), and if current reached 0 defeated subscribers are notified
// exactly once, after which every part bound to the pool is destroyed.
func (p *Pool) TakeDamage(amount float64) {
	p.mu.Lock()
	if p.destroyed || p.current <= 0 || amount < 0 {
		p.mu.Unlock()
		return
	}
	p.current -= amount
	if p.current < 0 {
		p.current = 0
	}
	current, total := p.current, p.total
	reachedZero := current == 0
	if reachedZero {
		p.defeated = true
	}
	health, defeat := p.snapshotLocked()
	dismantle := p.dismantle
	if reachedZero {
		p.subs = nil
		p.dismantle = nil
	}
	p.mu.Unlock()

	for _, fn := range health {
		fn(current, total)
	}
	if !reachedZero {
		return
	}
	for _, fn := range defeat {
		fn()
	}
	if dismantle != nil {
		dismantle()
	}
}

// Destroy tears the pool down without a defeat broadcast: every subscription is detached
// and every bound part is destroyed.
//
// Postcondition: SubscriberCount() == 0 and further calls are no-ops.
func (p *Pool) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.subs = nil
	dismantle := p.dismantle
	p.dismantle = nil
	p.mu.Unlock()

	if dismantle != nil {
		dismantle()
	}
}

// OnHealthChanged subscribes fn to health updates.
//
// Postcondition: Returns a valid handle; on an inert pool the handle is valid but fn never fires.
func (p *Pool) OnHealthChanged(fn func(current, total float64)) Subscription {
	return p.subscribe(subscriber{kind: subHealth, onHealth: fn})
}

// OnDefeated subscribes fn to the single defeat notification.
func (p *Pool) OnDefeated(fn func()) Subscription {
	return p.subscribe(subscriber{kind: subDefeated, onDefeat: fn})
}

// Unsubscribe removes the subscription identified by sub.
//
// Postcondition: Returns true if a live subscription was removed; false for handles that
// belong to another pool or were already removed.
func (p *Pool) Unsubscribe(sub Subscription) bool {
	if sub.pool != p {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subs {
		if s.id == sub.id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return true
		}
	}
	return false
}

// SubscriberCount returns the number of live subscriptions.
func (p *Pool) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *Pool) subscribe(s subscriber) Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSub++
	s.id = p.nextSub
	if !p.defeated && !p.destroyed {
		p.subs = append(p.subs, s)
	}
	return Subscription{pool: p, id: s.id}
}

// snapshotLocked copies the subscriber callbacks in subscription order.
// Caller must hold p.mu.
func (p *Pool) snapshotLocked() ([]func(float64, float64), []func()) {
	var health []func(float64, float64)
	var defeat []func()
	for _, s := range p.subs {
		switch s.kind {
		case subHealth:
			health = append(health, s.onHealth)
		case subDefeated:
			defeat = append(defeat, s.onDefeat)
		}
	}
	return health, defeat
}
