// Package encounter executes the spawn cadence of one encounter group: a single boss
// spawn, a count-bounded timed sequence, or an unbounded sequence gated on a live boss.
//
// Spawners never run on their own goroutine. The owner calls Step once per tick; every
// wait (initial delay, interval) is a comparison against the tick time.
package encounter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holdout/internal/game/boss"
	"github.com/cory-johannsen/holdout/internal/game/rng"
	"github.com/cory-johannsen/holdout/internal/game/wave"
)

// Entity is a handle to a created enemy.
type Entity interface {
	ID() string
	// ScaleHealth multiplies the entity's base max health by mult and fills it to full.
	ScaleHealth(mult float64)
	// BossPool returns the shared pool the entity roots, or nil.
	BossPool() *boss.Pool
}

// Authority creates entities.
type Authority interface {
	Create(prototypeID string, pos wave.Point) (Entity, error)
}

// Replicator makes a locally created entity network-visible. Best-effort.
type Replicator interface {
	Replicate(e Entity) error
}

// Context is the per-wave state shared by every spawner launched for the wave.
type Context struct {
	Arena     wave.Arena
	Wave      wave.Wave
	WaveIndex int
	// Factor is the scaling factor snapshotted at wave launch.
	Factor    int
	Authority Authority
	// Replicator may be nil.
	Replicator Replicator
	Source     rng.Source
	// BossAlive reports whether the designated boss of the wave is alive.
	BossAlive func() bool
	// OnBoss is called with every pool rooted by a spawned entity.
	OnBoss func(*boss.Pool)
	Logger *zap.Logger
}

// Spawner runs one encounter group.
type Spawner struct {
	group  wave.EncounterGroup
	plan   wave.Plan
	wctx   *Context
	next   time.Time
	issued int
	done   bool
	halted bool
}

// New creates a Spawner for group whose first spawn is due at start + InitialDelay.
//
// Precondition: wctx must be non-nil with non-nil Authority, Source and Logger.
func New(group wave.EncounterGroup, wctx *Context, start time.Time) *Spawner {
	return &Spawner{
		group: group,
		plan:  wave.PlanFor(group, wctx.Factor),
		wctx:  wctx,
		next:  start.Add(group.InitialDelay),
	}
}

// Group returns the encounter group this spawner runs.
func (s *Spawner) Group() wave.EncounterGroup { return s.group }

// Plan returns the effective count and health multiplier.
func (s *Spawner) Plan() wave.Plan { return s.plan }

// Issued returns the number of spawn attempts made so far.
func (s *Spawner) Issued() int { return s.issued }

// Done reports whether the spawner has finished issuing spawns.
func (s *Spawner) Done() bool { return s.done }

// Halted reports whether the spawner stopped because its context was cancelled.
func (s *Spawner) Halted() bool { return s.halted }

// Step advances the spawner to now, issuing every spawn that has come due.
//
// Postcondition: Returns true once the spawner is finished; a cancelled ctx finishes the
// spawner immediately without issuing anything further.
func (s *Spawner) Step(ctx context.Context, now time.Time) bool {
	if s.done {
		return true
	}
	if ctx.Err() != nil {
		s.halted = true
		return s.finish()
	}
	if s.group.Prototype == "" {
		s.wctx.Logger.Error("encounter group has no prototype; skipping",
			zap.String("wave", s.wctx.Wave.Name))
		return s.finish()
	}
	if s.plan.Unbounded && s.issued > 0 && !s.bossAlive() {
		return s.finish()
	}
	if now.Before(s.next) {
		return false
	}

	switch {
	case s.group.Boss:
		pos := s.pickPoint()
		if s.wctx.Wave.BossPosition != nil {
			pos = *s.wctx.Wave.BossPosition
		}
		s.spawn(pos)
		return s.finish()

	case s.plan.Unbounded:
		if !s.bossAlive() {
			if s.issued == 0 {
				s.wctx.Logger.Warn("unbounded encounter group has no live boss; spawning nothing",
					zap.String("wave", s.wctx.Wave.Name),
					zap.String("prototype", s.group.Prototype))
			}
			return s.finish()
		}
		s.spawn(s.pickPoint())
		s.next = s.advance(now)
		return false

	default:
		for s.issued < s.plan.Count && !now.Before(s.next) {
			if ctx.Err() != nil {
				s.halted = true
				return s.finish()
			}
			s.spawn(s.pickPoint())
			s.next = s.next.Add(s.group.Interval)
		}
		if s.issued >= s.plan.Count {
			return s.finish()
		}
		return false
	}
}

func (s *Spawner) bossAlive() bool {
	return s.wctx.BossAlive != nil && s.wctx.BossAlive()
}

func (s *Spawner) finish() bool {
	s.done = true
	return true
}

// advance returns the next due time of an unbounded group. Without a positive interval
// the group spawns at most once per tick.
func (s *Spawner) advance(now time.Time) time.Time {
	if s.group.Interval <= 0 {
		return now.Add(time.Nanosecond)
	}
	return s.next.Add(s.group.Interval)
}

// pickPoint chooses a random configured spawn point, falling back to the arena origin.
func (s *Spawner) pickPoint() wave.Point {
	pts := s.wctx.Arena.EnemySpawnPoints
	if len(pts) > 0 {
		return pts[s.wctx.Source.Intn(len(pts))]
	}
	if s.wctx.Arena.Origin != nil {
		return *s.wctx.Arena.Origin
	}
	return wave.Point{}
}

func (s *Spawner) spawn(pos wave.Point) {
	s.issued++
	e, err := s.wctx.Authority.Create(s.group.Prototype, pos)
	if err != nil {
		s.wctx.Logger.Error("spawn failed",
			zap.String("wave", s.wctx.Wave.Name),
			zap.String("prototype", s.group.Prototype),
			zap.Error(err))
		return
	}
	e.ScaleHealth(s.plan.HealthMultiplier)
	if pool := e.BossPool(); pool != nil && s.wctx.OnBoss != nil {
		s.wctx.OnBoss(pool)
	}
	if s.wctx.Replicator == nil {
		return
	}
	if err := s.wctx.Replicator.Replicate(e); err != nil {
		s.wctx.Logger.Warn("replication failed; entity exists locally only",
			zap.String("entity", e.ID()),
			zap.Error(err))
	}
}
