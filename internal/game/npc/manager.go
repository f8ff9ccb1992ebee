package npc

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cory-johannsen/holdout/internal/game/wave"
)

// Manager tracks all live instances by ID and by arena.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance       // instanceID → Instance
	arenaSets map[string]map[string]bool // arenaID → set of instanceIDs
	counter   atomic.Uint64
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		instances: make(map[string]*Instance),
		arenaSets: make(map[string]map[string]bool),
	}
}

// Spawn creates a new Instance from tmpl and places it in arenaID at pos.
//
// Precondition: tmpl must be non-nil; arenaID must be non-empty.
// Postcondition: Returns a new Instance with a unique ID registered in arenaID.
func (m *Manager) Spawn(tmpl *Template, arenaID string, pos wave.Point) (*Instance, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: tmpl must not be nil")
	}
	if arenaID == "" {
		return nil, fmt.Errorf("npc.Manager.Spawn: arenaID must not be empty")
	}

	n := m.counter.Add(1)
	id := fmt.Sprintf("%s-%s-%d", tmpl.ID, arenaID, n)
	inst := NewInstance(id, tmpl, arenaID, pos)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances[id] = inst
	if m.arenaSets[arenaID] == nil {
		m.arenaSets[arenaID] = make(map[string]bool)
	}
	m.arenaSets[arenaID][id] = true
	return inst, nil
}

// Remove deletes an instance by ID.
//
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.removeLocked(id) {
		return fmt.Errorf("npc instance %q not found", id)
	}
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (inst, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// ScaleHealth applies mult to the instance's base health under the manager lock.
func (m *Manager) ScaleHealth(id string, mult float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("npc instance %q not found", id)
	}
	inst.ScaleHealth(mult)
	return nil
}

// Damage subtracts amount from the instance's hit points and removes it when it dies.
//
// Precondition: amount >= 0.
// Postcondition: Returns killed == true iff the instance reached 0 HP and was removed.
func (m *Manager) Damage(id string, amount int) (killed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return false, fmt.Errorf("npc instance %q not found", id)
	}
	inst.CurrentHP -= amount
	if inst.CurrentHP > 0 {
		return false, nil
	}
	inst.CurrentHP = 0
	m.removeLocked(id)
	return true, nil
}

// InstancesInArena returns a snapshot of all live instances in arenaID ordered by ID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) InstancesInArena(arenaID string) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.arenaSets[arenaID]
	out := make([]*Instance, 0, len(ids))
	for id := range ids {
		if inst, ok := m.instances[id]; ok {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HostileCount returns the number of live hostile instances in arenaID.
func (m *Manager) HostileCount(arenaID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for id := range m.arenaSets[arenaID] {
		if inst, ok := m.instances[id]; ok && inst.Hostile {
			n++
		}
	}
	return n
}

// RemoveWhere deletes every instance in arenaID for which pred returns true.
//
// Postcondition: Returns the removed IDs in ascending order.
func (m *Manager) RemoveWhere(arenaID string, pred func(*Instance) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for id := range m.arenaSets[arenaID] {
		inst, ok := m.instances[id]
		if !ok || !pred(inst) {
			continue
		}
		removed = append(removed, id)
	}
	sort.Strings(removed)
	for _, id := range removed {
		m.removeLocked(id)
	}
	return removed
}

// Len returns the number of live instances across all arenas.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

// removeLocked deletes id from both indexes. Caller must hold m.mu.
func (m *Manager) removeLocked(id string) bool {
	inst, ok := m.instances[id]
	if !ok {
		return false
	}
	if as, ok := m.arenaSets[inst.ArenaID]; ok {
		delete(as, id)
		if len(as) == 0 {
			delete(m.arenaSets, inst.ArenaID)
		}
	}
	delete(m.instances, id)
	return true
}
