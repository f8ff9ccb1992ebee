package boss

import (
	"fmt"
	"sync"
)

// Registry maps part entity IDs to the pool that owns them, so finding every part of a
// pool is an explicit lookup. All methods are safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	nextIndex   map[string]int
	pools       map[PoolID]*Pool
	owners      map[string]PoolID
	parts       map[PoolID][]string
	destroyPart func(entityID string)
}

// NewRegistry creates an empty Registry. destroyPart is invoked once for each part of a
// pool that is defeated or destroyed; it may be nil.
func NewRegistry(destroyPart func(entityID string)) *Registry {
	if destroyPart == nil {
		destroyPart = func(string) {}
	}
	return &Registry{
		nextIndex:   make(map[string]int),
		pools:       make(map[PoolID]*Pool),
		owners:      make(map[string]PoolID),
		parts:       make(map[PoolID][]string),
		destroyPart: destroyPart,
	}
}

// NewPool allocates the next pool index in arena and tracks the new pool.
//
// Precondition: arena must be non-empty; total > 0.
// Postcondition: Returns a full-health pool; defeating or destroying it destroys every
// part bound to it and forgets the pool.
func (r *Registry) NewPool(arena string, total float64) *Pool {
	r.mu.Lock()
	id := PoolID{Arena: arena, Index: r.nextIndex[arena]}
	r.nextIndex[arena]++
	p := NewPool(id, total)
	p.dismantle = func() { r.dismantle(id) }
	r.pools[id] = p
	r.mu.Unlock()
	return p
}

// Bind records entityID as a part of pool id.
//
// Postcondition: Returns an error when id is unknown or entityID already belongs to a pool.
func (r *Registry) Bind(entityID string, id PoolID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[id]; !ok {
		return fmt.Errorf("boss pool %s not registered", id)
	}
	if owner, ok := r.owners[entityID]; ok {
		return fmt.Errorf("entity %q already bound to pool %s", entityID, owner)
	}
	r.owners[entityID] = id
	r.parts[id] = append(r.parts[id], entityID)
	return nil
}

// PoolOf returns the pool that owns entityID.
func (r *Registry) PoolOf(entityID string) (*Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.owners[entityID]
	if !ok {
		return nil, false
	}
	p, ok := r.pools[id]
	return p, ok
}

// Pool returns the tracked pool with the given id.
func (r *Registry) Pool(id PoolID) (*Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[id]
	return p, ok
}

// PartsOf returns a snapshot of the entity IDs bound to id, in bind order.
func (r *Registry) PartsOf(id PoolID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.parts[id]...)
}

// IsPart reports whether entityID belongs to any tracked pool.
func (r *Registry) IsPart(entityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owners[entityID]
	return ok
}

// Release forgets id and its part bindings without destroying anything.
//
// Postcondition: Returns the part IDs that were bound to id.
func (r *Registry) Release(id PoolID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	parts := r.parts[id]
	for _, e := range parts {
		delete(r.owners, e)
	}
	delete(r.parts, id)
	delete(r.pools, id)
	return parts
}

// Len returns the number of tracked pools.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools)
}

func (r *Registry) dismantle(id PoolID) {
	for _, part := range r.Release(id) {
		r.destroyPart(part)
	}
}
