// Package wave defines the authoring-time wave schedule, the per-wave arena layout,
// and the difficulty scaling rules applied when a wave starts.
package wave

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/holdout/internal/game/boss"
)

// ErrNoWaves is returned when a schedule contains no waves.
var ErrNoWaves = errors.New("wave schedule contains no waves")

// Point is a position in arena coordinates.
type Point struct {
	X float64
	Y float64
}

// String returns the point in "(x, y)" form.
func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// EncounterGroup is a homogeneous batch of one enemy prototype.
//
// Invariant: immutable once the wave containing it has started.
type EncounterGroup struct {
	// Prototype is the enemy template ID to spawn.
	Prototype string
	// Count is the base spawn count. Count <= 0 means unbounded (boss-gated).
	Count int
	// Interval is the delay between consecutive spawns within the group.
	Interval time.Duration
	// InitialDelay is waited once before the first spawn.
	InitialDelay time.Duration
	// Boss marks a group that spawns exactly one boss at the wave's boss position.
	Boss bool
	// ScaleHealth selects health scaling instead of count scaling.
	ScaleHealth bool
	// MajorBoss marks a group whose wave is subject to wipe detection.
	MajorBoss bool
	// HealthMultiplier is the base health multiplier; zero means 1.
	HealthMultiplier float64
}

// Unbounded reports whether the group spawns until its designated boss is gone.
func (g EncounterGroup) Unbounded() bool {
	return !g.Boss && g.Count <= 0
}

// BaseMultiplier returns HealthMultiplier, defaulting to 1.
//
// Postcondition: Returns > 0.
func (g EncounterGroup) BaseMultiplier() float64 {
	if g.HealthMultiplier <= 0 {
		return 1
	}
	return g.HealthMultiplier
}

// Wave is one complete sequence of encounter groups followed by a shop phase.
type Wave struct {
	Name   string
	Groups []EncounterGroup
	// UseAlternateSpawn places players at the arena's alternate (boss) spawn point.
	UseAlternateSpawn bool
	// BossPosition is where boss groups spawn; nil falls back to a regular spawn point.
	BossPosition *Point
}

// HasMajorBoss reports whether any group in the wave is a major boss.
func (w Wave) HasMajorBoss() bool {
	for _, g := range w.Groups {
		if g.MajorBoss {
			return true
		}
	}
	return false
}

// Arena is the static layout shared by every wave of a schedule.
type Arena struct {
	ID string
	// EnemySpawnPoints are chosen at random for each non-boss spawn.
	EnemySpawnPoints []Point
	// PlayerSpawn is where players are placed at the start of a standard wave.
	PlayerSpawn Point
	// AlternatePlayerSpawn is used by waves with UseAlternateSpawn set.
	AlternatePlayerSpawn *Point
	// Origin is the orchestrator's own position, the last-resort spawn fallback.
	Origin *Point
}

// PlayerSpawnFor returns the player spawn point configured for w.
//
// Postcondition: Returns AlternatePlayerSpawn when w.UseAlternateSpawn is set and an
// alternate point exists; PlayerSpawn otherwise.
func (a Arena) PlayerSpawnFor(w Wave) Point {
	if w.UseAlternateSpawn && a.AlternatePlayerSpawn != nil {
		return *a.AlternatePlayerSpawn
	}
	return a.PlayerSpawn
}

// HasSpawnSource reports whether any enemy spawn location can be resolved.
func (a Arena) HasSpawnSource() bool {
	return len(a.EnemySpawnPoints) > 0 || a.Origin != nil
}

// Schedule is the immutable wave configuration loaded before a session starts.
type Schedule struct {
	Arena Arena
	Waves []Wave
}

// Validate checks the schedule's hard invariants.
//
// Postcondition: Returns ErrNoWaves for an empty schedule, or an error describing every
// violation; nil otherwise. Soft problems are reported by Warnings instead.
func (s *Schedule) Validate() error {
	if len(s.Waves) == 0 {
		return ErrNoWaves
	}
	var errs []string
	if s.Arena.ID == "" {
		errs = append(errs, "arena.id must not be empty")
	}
	for i, w := range s.Waves {
		if w.Name == "" {
			errs = append(errs, fmt.Sprintf("waves[%d].name must not be empty", i))
		}
		for j, g := range w.Groups {
			if g.Interval < 0 || g.InitialDelay < 0 {
				errs = append(errs, fmt.Sprintf("waves[%d].groups[%d]: delays must not be negative", i, j))
			}
			if g.HealthMultiplier < 0 {
				errs = append(errs, fmt.Sprintf("waves[%d].groups[%d]: health_multiplier must not be negative", i, j))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid wave schedule: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Warnings returns configuration problems that skip a single operation rather than
// rejecting the schedule.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (s *Schedule) Warnings() []string {
	out := []string{}
	if len(s.Arena.EnemySpawnPoints) == 0 {
		if s.Arena.Origin == nil {
			out = append(out, "arena has no enemy spawn points and no origin; waves will not spawn")
		} else {
			out = append(out, "arena has no enemy spawn points; spawns fall back to origin")
		}
	}
	for i, w := range s.Waves {
		for j, g := range w.Groups {
			if g.Prototype == "" {
				out = append(out, fmt.Sprintf("wave %q group %d has no prototype and will be skipped", w.Name, j))
			}
			if g.Unbounded() && !w.hasBossGroup() {
				out = append(out, fmt.Sprintf("wave %q group %d is unbounded but the wave has no boss", w.Name, j))
			}
			if g.Unbounded() && g.Interval <= 0 {
				out = append(out, fmt.Sprintf("wave %d group %d is unbounded with no interval; one spawn per tick", i, j))
			}
		}
	}
	return out
}

func (w Wave) hasBossGroup() bool {
	for _, g := range w.Groups {
		if g.Boss {
			return true
		}
	}
	return false
}

// Progress is the live position of a session within its schedule.
type Progress struct {
	CurrentWaveIndex int
	// ActiveBoss is the pool of the most recently spawned boss, or nil.
	ActiveBoss *boss.Pool
}
