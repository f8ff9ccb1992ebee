// Package session tracks the players participating in a combat session: who is
// registered, who has finished spawning, who is alive, and where they stand.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/holdout/internal/game/wave"
)

// Participant is a registered player's session state.
type Participant struct {
	// UID is the unique player identifier.
	UID string
	// Name is the display name.
	Name string
	// Spawned is true once the player's entity finished its initial spawn.
	Spawned bool
	// Alive is false while the player is incapacitated.
	Alive bool
	// Position is the player's last known position.
	Position wave.Point
}

// Roster tracks registered participants.
// All methods are safe for concurrent use.
//
// Invariant: death never removes a participant; only RemovePlayer does.
type Roster struct {
	mu      sync.RWMutex
	players map[string]*Participant
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{players: make(map[string]*Participant)}
}

// AddPlayer registers a new, alive, not-yet-spawned participant.
//
// Precondition: uid must be non-empty.
// Postcondition: Returns a copy of the registered participant, or an error if uid is
// empty or already registered.
func (r *Roster) AddPlayer(uid, name string) (Participant, error) {
	if uid == "" {
		return Participant{}, fmt.Errorf("session.Roster.AddPlayer: uid must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[uid]; exists {
		return Participant{}, fmt.Errorf("player %q already registered", uid)
	}
	p := &Participant{UID: uid, Name: name, Alive: true}
	r.players[uid] = p
	return *p, nil
}

// RemovePlayer deregisters a participant on explicit exit.
//
// Postcondition: Returns an error if uid is not registered.
func (r *Roster) RemovePlayer(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[uid]; !exists {
		return fmt.Errorf("player %q not found", uid)
	}
	delete(r.players, uid)
	return nil
}

// MarkSpawned records that uid finished its initial spawn at pos.
func (r *Roster) MarkSpawned(uid string, pos wave.Point) error {
	return r.update(uid, func(p *Participant) {
		p.Spawned = true
		p.Position = pos
	})
}

// MarkDead records that uid is incapacitated. The participant stays registered.
func (r *Roster) MarkDead(uid string) error {
	return r.update(uid, func(p *Participant) { p.Alive = false })
}

// Move records a new position for uid.
func (r *Roster) Move(uid string, pos wave.Point) error {
	return r.update(uid, func(p *Participant) { p.Position = pos })
}

// GetActivePlayerCount returns the number of registered participants, dead or alive.
//
// Postcondition: Returns a value >= 0.
func (r *Roster) GetActivePlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// GetAlivePlayerCount returns the number of registered participants that are alive.
//
// Postcondition: Returns a value >= 0 and <= GetActivePlayerCount().
func (r *Roster) GetAlivePlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// AllSpawned reports whether at least min participants are registered and every
// registered participant has spawned.
func (r *Roster) AllSpawned(min int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.players) == 0 || len(r.players) < min {
		return false
	}
	for _, p := range r.players {
		if !p.Spawned {
			return false
		}
	}
	return true
}

// ResetAll resurrects every participant and moves them to at.
//
// Postcondition: every participant is alive and positioned at at.
func (r *Roster) ResetAll(at wave.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		p.Alive = true
		p.Position = at
	}
}

// Get returns a copy of the participant registered as uid.
func (r *Roster) Get(uid string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[uid]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Participants returns copies of all participants ordered by UID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (r *Roster) Participants() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// Positions returns every participant's position keyed by UID.
func (r *Roster) Positions() map[string]wave.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]wave.Point, len(r.players))
	for uid, p := range r.players {
		out[uid] = p.Position
	}
	return out
}

func (r *Roster) update(uid string, fn func(*Participant)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uid]
	if !ok {
		return fmt.Errorf("player %q not found", uid)
	}
	fn(p)
	return nil
}
