package gameserver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holdout/internal/game/session"
	"github.com/cory-johannsen/holdout/internal/game/wave"
)

// DamageTarget is the part of the spawn authority that sparring bots attack.
type DamageTarget interface {
	FirstHostile() (string, bool)
	ApplyDamage(entityID string, amount float64) (killed bool, err error)
}

// Sparring drives headless bot participants: each live bot hits the first hostile
// in the arena once per tick. It lets a session run unattended in development.
type Sparring struct {
	roster *session.Roster
	target DamageTarget
	damage float64
	bots   []string
	logger *zap.Logger
}

// NewSparring registers count bots in roster, spawned at spawn.
//
// Precondition: roster, target and logger must be non-nil; count >= 1; damage >= 0.
// Postcondition: Every bot is registered, alive and spawned.
func NewSparring(roster *session.Roster, target DamageTarget, count int, damage float64, spawn wave.Point, logger *zap.Logger) (*Sparring, error) {
	if count < 1 {
		return nil, fmt.Errorf("sparring: count must be >= 1, got %d", count)
	}
	if damage < 0 {
		return nil, fmt.Errorf("sparring: damage must be >= 0, got %v", damage)
	}
	s := &Sparring{roster: roster, target: target, damage: damage, logger: logger}
	for i := 1; i <= count; i++ {
		uid := fmt.Sprintf("bot-%d", i)
		if _, err := roster.AddPlayer(uid, fmt.Sprintf("Sparring Bot %d", i)); err != nil {
			return nil, err
		}
		if err := roster.MarkSpawned(uid, spawn); err != nil {
			return nil, err
		}
		s.bots = append(s.bots, uid)
	}
	logger.Info("sparring bots joined", zap.Int("bots", count), zap.Float64("damage", damage))
	return s, nil
}

// Bots returns the bot UIDs.
func (s *Sparring) Bots() []string {
	return append([]string(nil), s.bots...)
}

// Tick lets every live bot attack.
func (s *Sparring) Tick(time.Time) {
	for _, uid := range s.bots {
		p, ok := s.roster.Get(uid)
		if !ok || !p.Alive {
			continue
		}
		id, ok := s.target.FirstHostile()
		if !ok {
			return
		}
		killed, err := s.target.ApplyDamage(id, s.damage)
		if err != nil {
			s.logger.Debug("sparring attack failed", zap.String("bot", uid), zap.String("target", id), zap.Error(err))
			continue
		}
		if killed {
			s.logger.Debug("sparring bot scored a kill", zap.String("bot", uid), zap.String("target", id))
		}
	}
}
