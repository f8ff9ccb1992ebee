package gameserver

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/holdout/internal/game/boss"
	"github.com/cory-johannsen/holdout/internal/game/encounter"
	"github.com/cory-johannsen/holdout/internal/game/npc"
	"github.com/cory-johannsen/holdout/internal/game/wave"
)

// Authority creates and destroys the enemies of one arena. Boss templates become a
// root instance plus its parts, all bound to one registry pool.
//
// All methods are safe for concurrent use.
type Authority struct {
	arena    string
	catalog  *npc.Catalog
	npcs     *npc.Manager
	registry *boss.Registry
}

// NewAuthority creates an Authority for arena.
//
// Precondition: arena must be non-empty; catalog and npcs must be non-nil.
func NewAuthority(arena string, catalog *npc.Catalog, npcs *npc.Manager) *Authority {
	a := &Authority{arena: arena, catalog: catalog, npcs: npcs}
	a.registry = boss.NewRegistry(func(entityID string) {
		// Parts may already be gone when a retry removed them first.
		_ = npcs.Remove(entityID)
	})
	return a
}

// Arena returns the arena ID this authority spawns into.
func (a *Authority) Arena() string { return a.arena }

// Registry returns the boss part registry.
func (a *Authority) Registry() *boss.Registry { return a.registry }

// Manager returns the underlying instance manager.
func (a *Authority) Manager() *npc.Manager { return a.npcs }

// Create spawns prototypeID at pos.
//
// Postcondition: For a boss template the returned entity roots a new pool whose parts
// are spawned at pos and bound to it. Returns an error for unknown templates.
func (a *Authority) Create(prototypeID string, pos wave.Point) (encounter.Entity, error) {
	tmpl, err := a.catalog.Get(prototypeID)
	if err != nil {
		return nil, err
	}
	inst, err := a.npcs.Spawn(tmpl, a.arena, pos)
	if err != nil {
		return nil, fmt.Errorf("spawning %q: %w", prototypeID, err)
	}
	e := &spawned{authority: a, id: inst.ID}
	if tmpl.Boss == nil {
		return e, nil
	}

	e.base = float64(tmpl.PoolTotal())
	e.pool = a.registry.NewPool(a.arena, e.base)
	if err := a.registry.Bind(inst.ID, e.pool.ID()); err != nil {
		return nil, err
	}
	for _, partID := range tmpl.Boss.Parts {
		partTmpl, err := a.catalog.Get(partID)
		if err != nil {
			e.pool.Destroy()
			return nil, fmt.Errorf("boss %q part: %w", prototypeID, err)
		}
		part, err := a.npcs.Spawn(partTmpl, a.arena, pos)
		if err != nil {
			e.pool.Destroy()
			return nil, fmt.Errorf("spawning part %q of %q: %w", partID, prototypeID, err)
		}
		if err := a.registry.Bind(part.ID, e.pool.ID()); err != nil {
			e.pool.Destroy()
			return nil, err
		}
	}
	return e, nil
}

// HostileCount returns the number of live hostile instances in the arena, boss parts included.
func (a *Authority) HostileCount() int {
	return a.npcs.HostileCount(a.arena)
}

// DestroyEntities removes every instance in the arena, hostile or passive, that is not
// part of a boss pool.
//
// Postcondition: Returns the removed IDs in ascending order.
func (a *Authority) DestroyEntities() []string {
	return a.npcs.RemoveWhere(a.arena, func(inst *npc.Instance) bool {
		return !a.registry.IsPart(inst.ID)
	})
}

// ApplyDamage deals amount to entityID. Damage to any part of a boss goes to its pool;
// fractional damage to a regular instance is rounded up.
//
// Postcondition: Returns killed == true when the entity (or its pool) reached zero health.
func (a *Authority) ApplyDamage(entityID string, amount float64) (killed bool, err error) {
	if amount < 0 {
		return false, fmt.Errorf("damage must be >= 0, got %v", amount)
	}
	if p, ok := a.registry.PoolOf(entityID); ok {
		p.TakeDamage(amount)
		return p.Defeated(), nil
	}
	return a.npcs.Damage(entityID, int(math.Ceil(amount)))
}

// FirstHostile returns the lowest-ID hostile instance in the arena.
func (a *Authority) FirstHostile() (string, bool) {
	for _, inst := range a.npcs.InstancesInArena(a.arena) {
		if inst.Hostile {
			return inst.ID, true
		}
	}
	return "", false
}

// spawned is the entity handle returned by Create.
type spawned struct {
	authority *Authority
	id        string
	pool      *boss.Pool
	base      float64
}

func (e *spawned) ID() string { return e.id }

func (e *spawned) BossPool() *boss.Pool { return e.pool }

// ScaleHealth scales the pool for a boss and the instance otherwise.
func (e *spawned) ScaleHealth(mult float64) {
	if e.pool != nil {
		e.pool.SetTotal(math.Max(1, math.Round(e.base*mult)))
		return
	}
	_ = e.authority.npcs.ScaleHealth(e.id, mult)
}
